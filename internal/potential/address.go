package potential

import (
	"fmt"
	"strings"
)

// Parameter addresses take the form:
//
//	pair/Mg-O/a      Buckingham prefactor A
//	pair/Mg-O/rho    Buckingham decay length
//	pair/Mg-O/c      dispersion coefficient
//	species/O/spring core-shell spring constant k2
//	species/O/shellq shell charge (core charge follows to keep Z fixed)
//
// Pair names match either species order.

func (m *Model) get(addr string) (float64, error) {
	kind, target, field, err := splitAddr(addr)
	if err != nil {
		return 0, err
	}
	switch kind {
	case "pair":
		p, err := m.findPair(target)
		if err != nil {
			return 0, err
		}
		switch field {
		case "a":
			return p.A, nil
		case "rho":
			return p.Rho, nil
		case "c":
			return p.C, nil
		}
	case "species":
		for _, s := range m.Species {
			if s.Name != target {
				continue
			}
			switch field {
			case "spring":
				return s.Spring, nil
			case "shellq":
				return s.ShellCharge, nil
			default:
				return 0, fmt.Errorf("parameter %s: unknown field %q", addr, field)
			}
		}
		return 0, fmt.Errorf("parameter %s: unknown species %q", addr, target)
	}
	return 0, fmt.Errorf("parameter %s: unknown field %q", addr, field)
}

func (m *Model) set(addr string, v float64) error {
	kind, target, field, err := splitAddr(addr)
	if err != nil {
		return err
	}
	switch kind {
	case "pair":
		p, err := m.findPair(target)
		if err != nil {
			return err
		}
		switch field {
		case "a":
			p.A = v
			return nil
		case "rho":
			p.Rho = v
			return nil
		case "c":
			p.C = v
			return nil
		}
	case "species":
		for i := range m.Species {
			if m.Species[i].Name != target {
				continue
			}
			switch field {
			case "spring":
				m.Species[i].Spring = v
				return nil
			case "shellq":
				m.Species[i].ShellCharge = v
				return nil
			default:
				return fmt.Errorf("parameter %s: unknown field %q", addr, field)
			}
		}
		return fmt.Errorf("parameter %s: unknown species %q", addr, target)
	}
	return fmt.Errorf("parameter %s: unknown field %q", addr, field)
}

func (m *Model) findPair(name string) (*Pair, error) {
	a, b, ok := strings.Cut(name, "-")
	if !ok {
		return nil, fmt.Errorf("bad pair name %q", name)
	}
	for i := range m.Pairs {
		p := &m.Pairs[i]
		if (p.SpeciesA == a && p.SpeciesB == b) || (p.SpeciesA == b && p.SpeciesB == a) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown pair %q", name)
}

func splitAddr(addr string) (kind, target, field string, err error) {
	parts := strings.Split(addr, "/")
	if len(parts) != 3 || (parts[0] != "pair" && parts[0] != "species") {
		return "", "", "", fmt.Errorf("bad parameter address %q", addr)
	}
	return parts[0], parts[1], strings.ToLower(parts[2]), nil
}
