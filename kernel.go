package convolve

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// KernelSize is the number of weights in a 3x3 kernel.
const KernelSize = 9

// Kernel is a named 3x3 convolution kernel with row-major weights.
//
// NormalizationWeight is the divisor applied to the weighted sum. It equals
// the sum of the weights when that sum is positive and 1 otherwise, so
// kernels whose coefficients sum to zero or less (emboss, edge detection)
// neither divide by zero nor flip sign.
type Kernel struct {
	Name                string
	Weights             [KernelSize]float32
	NormalizationWeight float32
}

// NewKernel validates weights and computes the normalization weight.
func NewKernel(name string, weights [KernelSize]float32) (Kernel, error) {
	for i, w := range weights {
		if math32.IsNaN(w) || math32.IsInf(w, 0) {
			return Kernel{}, fmt.Errorf("%w: %q weight %d is %v", ErrInvalidKernel, name, i, w)
		}
	}
	return Kernel{
		Name:                name,
		Weights:             weights,
		NormalizationWeight: NormalizationWeight(weights),
	}, nil
}

// NormalizationWeight returns sum(weights) if positive, else 1.
func NormalizationWeight(weights [KernelSize]float32) float32 {
	var sum float32
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 1
	}
	return sum
}

// IdentityKernel returns the kernel that copies its input unchanged.
// The compositor uses it to present the final texture.
func IdentityKernel() Kernel {
	return Kernel{
		Name:                "normal",
		Weights:             [KernelSize]float32{0, 0, 0, 0, 1, 0, 0, 0, 0},
		NormalizationWeight: 1,
	}
}

// Built-in kernel weights.
var (
	weightsGaussianBlur = [KernelSize]float32{
		0.045, 0.122, 0.045,
		0.122, 0.332, 0.122,
		0.045, 0.122, 0.045,
	}
	weightsUnsharpen = [KernelSize]float32{
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	}
	weightsEmboss = [KernelSize]float32{
		-2, -1, 0,
		-1, 1, 1,
		0, 1, 2,
	}
)

// Catalog is an ordered collection of kernels. The order defines both the
// bit positions of a Selection and the order in which passes run.
//
// A Catalog may contain empty slots when RegisterAt skips ahead; Get on an
// empty slot returns a *LookupError.
//
// Catalog is not safe for concurrent mutation. Pipelines take a snapshot
// at construction, so later changes do not affect them.
type Catalog struct {
	slots []*Kernel
	index map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// DefaultCatalog returns the built-in catalog:
// normal, gaussianBlur, unsharpen, emboss.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.mustRegister("normal", IdentityKernel().Weights)
	c.mustRegister("gaussianBlur", weightsGaussianBlur)
	c.mustRegister("unsharpen", weightsUnsharpen)
	c.mustRegister("emboss", weightsEmboss)
	return c
}

func (c *Catalog) mustRegister(name string, weights [KernelSize]float32) {
	if _, err := c.Register(name, weights); err != nil {
		panic(err)
	}
}

// Register adds a kernel. If a kernel with the same name exists it is
// overwritten in place; otherwise the kernel is appended at the next slot.
// It returns the slot index.
func (c *Catalog) Register(name string, weights [KernelSize]float32) (int, error) {
	if i, ok := c.index[name]; ok {
		return i, c.RegisterAt(i, name, weights)
	}
	i := len(c.slots)
	return i, c.RegisterAt(i, name, weights)
}

// RegisterAt stores a kernel at slot i, growing the catalog if needed.
// Any previous kernel at i is replaced. Registering a name that already
// lives in another slot moves it.
func (c *Catalog) RegisterAt(i int, name string, weights [KernelSize]float32) error {
	if i < 0 || i >= MaxSelectionBits {
		return fmt.Errorf("%w: slot %d outside [0, %d)", ErrInvalidKernel, i, MaxSelectionBits)
	}
	k, err := NewKernel(name, weights)
	if err != nil {
		return err
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if prev, ok := c.index[name]; ok && prev != i {
		c.slots[prev] = nil
	}
	for len(c.slots) <= i {
		c.slots = append(c.slots, nil)
	}
	if old := c.slots[i]; old != nil && old.Name != name {
		delete(c.index, old.Name)
	}
	c.slots[i] = &k
	c.index[name] = i
	c.trim()
	return nil
}

// trim drops trailing empty slots so Len reflects the highest kernel.
func (c *Catalog) trim() {
	n := len(c.slots)
	for n > 0 && c.slots[n-1] == nil {
		n--
	}
	c.slots = c.slots[:n]
}

// Get returns the kernel at slot i.
func (c *Catalog) Get(i int) (Kernel, error) {
	if i < 0 || i >= len(c.slots) || c.slots[i] == nil {
		return Kernel{}, &LookupError{Index: i}
	}
	return *c.slots[i], nil
}

// Lookup returns the kernel with the given name and its slot.
func (c *Catalog) Lookup(name string) (Kernel, int, error) {
	i, ok := c.index[name]
	if !ok {
		return Kernel{}, -1, &LookupError{Index: -1, Name: name}
	}
	return *c.slots[i], i, nil
}

// Len returns the number of slots, including empty ones below the highest
// registered kernel.
func (c *Catalog) Len() int {
	return len(c.slots)
}

// Names returns kernel names in slot order. Empty slots yield "".
func (c *Catalog) Names() []string {
	names := make([]string, len(c.slots))
	for i, k := range c.slots {
		if k != nil {
			names[i] = k.Name
		}
	}
	return names
}

// Select builds a Selection enabling the named kernels.
func (c *Catalog) Select(names ...string) (Selection, error) {
	var s Selection
	for _, name := range names {
		_, i, err := c.Lookup(name)
		if err != nil {
			return 0, err
		}
		s = s.With(i)
	}
	return s, nil
}

// Clone returns a deep copy.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		slots: make([]*Kernel, len(c.slots)),
		index: make(map[string]int, len(c.index)),
	}
	for i, k := range c.slots {
		if k != nil {
			kk := *k
			out.slots[i] = &kk
		}
	}
	for name, i := range c.index {
		out.index[name] = i
	}
	return out
}

// String lists the catalog for debugging.
func (c *Catalog) String() string {
	var b strings.Builder
	b.WriteString("Catalog[")
	for i, name := range c.Names() {
		if i > 0 {
			b.WriteString(" ")
		}
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(&b, "%d:%s", i, name)
	}
	b.WriteString("]")
	return b.String()
}
