package curve

import "github.com/meenmo/cdslib/errs"

// Bundle maps curve names to curves, so trades can refer to their discount,
// survival and bond curves by name.
type Bundle map[string]*Curve

// Get returns the named curve.
func (b Bundle) Get(name string) (*Curve, error) {
	c, ok := b[name]
	if !ok || c == nil {
		return nil, errs.CurveNotFound("Bundle.Get", name)
	}
	return c, nil
}
