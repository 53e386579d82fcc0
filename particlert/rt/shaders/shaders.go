package shaders

import (
	_ "embed"
)

//go:embed quad.vert
var QuadVert string

//go:embed seed.frag
var SeedFrag string

//go:embed move.frag
var MoveFrag string

//go:embed background.frag
var BackgroundFrag string

//go:embed point.vert
var PointVert string

//go:embed point.frag
var PointFrag string
