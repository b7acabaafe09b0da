package network

import "fmt"

// Validate checks that every element references existing buses and that
// exactly one reference source is in service.
func (n *Network) Validate() error {
	for _, l := range n.Lines {
		if err := n.checkBus("line "+l.Name, l.FromBus); err != nil {
			return err
		}
		if err := n.checkBus("line "+l.Name, l.ToBus); err != nil {
			return err
		}
	}

	for _, t := range n.Transformers {
		if err := n.checkBus("transformer "+t.Name, t.HVBus); err != nil {
			return err
		}
		if err := n.checkBus("transformer "+t.Name, t.LVBus); err != nil {
			return err
		}
		if t.Params.SnMVA <= 0 || t.Params.VkPercent <= 0 {
			return &ConfigurationError{Element: "transformer " + t.Name, Reason: "missing rated parameters"}
		}
	}

	for _, sw := range n.Switches {
		if err := n.checkSwitch(sw); err != nil {
			return err
		}
	}

	for _, l := range n.Loads {
		if err := n.checkBus("load "+l.Name, l.Bus); err != nil {
			return err
		}
	}

	sources := 0
	for _, g := range n.ExtGrids {
		if err := n.checkBus("ext_grid "+g.Name, g.Bus); err != nil {
			return err
		}
		if g.InService {
			sources++
		}
	}
	switch {
	case sources == 0:
		return &ConfigurationError{Reason: "no reference source in service"}
	case sources > 1:
		return &ConfigurationError{Reason: fmt.Sprintf("%d reference sources in service, want 1", sources)}
	}
	return nil
}

// Source returns the in-service reference source. Call Validate first.
func (n *Network) Source() (*ExtGrid, error) {
	for i := range n.ExtGrids {
		if n.ExtGrids[i].InService {
			return &n.ExtGrids[i], nil
		}
	}
	return nil, &ConfigurationError{Reason: "no reference source in service"}
}
