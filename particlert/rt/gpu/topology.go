package gpu

// Attribute is one vertex buffer bound to one shader slot.
type Attribute struct {
	Buffer     BufferID
	Slot       int32
	Components int32
}

// Topology is the vertex attribute set of one draw shape, scoped to one RenderSystem.
type Topology struct {
	name       string
	attributes map[string]*Attribute
	order      []string
	warn       *warnOnce
}

func newTopology(name string, warn *warnOnce) *Topology {
	return &Topology{
		name:       name,
		attributes: make(map[string]*Attribute),
		warn:       warn,
	}
}

func (t *Topology) Name() string {
	return t.name
}

// Attribute returns the registered attribute, if any.
func (t *Topology) Attribute(name string) (*Attribute, bool) {
	a, ok := t.attributes[name]
	return a, ok
}

func (t *Topology) Len() int {
	return len(t.order)
}

// RegisterAttribute uploads data once per attribute name and resolves its slot in program.
// The second call with the same name returns the existing attribute untouched.
func (t *Topology) RegisterAttribute(dev Device, program ProgramID, name string, data []float32, components int32) *Attribute {
	if a, ok := t.attributes[name]; ok {
		return a
	}
	a := &Attribute{
		Buffer:     dev.CreateVertexBuffer(data),
		Slot:       dev.AttribLocation(program, name),
		Components: components,
	}
	if a.Slot < 0 {
		t.warn.warn("attribute:"+name, "topology %s: attribute %q is not active in the program", t.name, name)
	}
	t.attributes[name] = a
	t.order = append(t.order, name)
	return a
}

// BindForDraw binds every resolved attribute buffer to its slot.
func (t *Topology) BindForDraw(dev Device) {
	for _, name := range t.order {
		a := t.attributes[name]
		if a.Slot < 0 {
			continue
		}
		dev.BindVertexBuffer(a.Buffer)
		dev.VertexAttribPointer(uint32(a.Slot), a.Components)
	}
}

// ReleaseAfterDraw drops the array buffer binding. Slots stay enabled.
func (t *Topology) ReleaseAfterDraw(dev Device) {
	dev.BindVertexBuffer(0)
}

func (t *Topology) release(dev Device) {
	for _, name := range t.order {
		dev.DeleteBuffer(t.attributes[name].Buffer)
	}
	t.attributes = make(map[string]*Attribute)
	t.order = nil
}
