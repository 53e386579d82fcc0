package gpgpu

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

type AssetId string

// TextureAsset is CPU-side RGBA pixel data. Version grows with every update so
// consumers know when to re-upload.
type TextureAsset struct {
	Version uint
	Image   *image.RGBA
}

type AssetServer struct {
	textures map[AssetId]*TextureAsset
}

type AssetServerModule struct{}

func NewAssetServer() *AssetServer {
	return &AssetServer{textures: make(map[AssetId]*TextureAsset)}
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(NewAssetServer())
}

func (server *AssetServer) CreateTexture(img *image.RGBA) AssetId {
	id := makeAssetId()
	server.textures[id] = &TextureAsset{Image: img}
	return id
}

// LoadTexture decodes a PNG or JPEG file into a new texture asset.
func (server *AssetServer) LoadTexture(filename string) (AssetId, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("load texture: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", filename, err)
	}
	return server.CreateTexture(toRGBA(img)), nil
}

func (server *AssetServer) Texture(id AssetId) (*TextureAsset, bool) {
	t, ok := server.textures[id]
	return t, ok
}

// UpdateTexture replaces the pixels of id and bumps its version.
func (server *AssetServer) UpdateTexture(id AssetId, img *image.RGBA) error {
	t, ok := server.textures[id]
	if !ok {
		return fmt.Errorf("texture %s: unknown asset", id)
	}
	t.Image = img
	t.Version++
	return nil
}

func (server *AssetServer) RemoveTexture(id AssetId) {
	delete(server.textures, id)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
