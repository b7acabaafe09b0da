package network

// Line returns the line registered under h.
func (n *Network) Line(h Handle) (*Line, error) {
	i, ok := n.lineIndex(h)
	if !ok {
		return nil, unknownHandle("line", h)
	}
	return &n.Lines[i], nil
}

// Transformer returns the transformer registered under h.
func (n *Network) Transformer(h Handle) (*Transformer, error) {
	i, ok := n.transformerIndex(h)
	if !ok {
		return nil, unknownHandle("transformer", h)
	}
	return &n.Transformers[i], nil
}

// Switch returns the switch registered under h.
func (n *Network) Switch(h Handle) (*Switch, error) {
	i, ok := n.switchIndex(h)
	if !ok {
		return nil, unknownHandle("switch", h)
	}
	return &n.Switches[i], nil
}

// ExtGrid returns the external grid registered under h.
func (n *Network) ExtGrid(h Handle) (*ExtGrid, error) {
	i, ok := n.extGridIndex(h)
	if !ok {
		return nil, unknownHandle("ext_grid", h)
	}
	return &n.ExtGrids[i], nil
}

// Load returns the load registered under h.
func (n *Network) Load(h Handle) (*Load, error) {
	i, ok := n.loadIndex(h)
	if !ok {
		return nil, unknownHandle("load", h)
	}
	return &n.Loads[i], nil
}

func unknownHandle(kind string, h Handle) error {
	return &ConfigurationError{Element: kind + " " + string(h), Reason: "unknown handle"}
}

func (n *Network) lineIndex(h Handle) (int, bool) {
	for i := range n.Lines {
		if h != "" && n.Lines[i].Handle == h {
			return i, true
		}
	}
	return 0, false
}

func (n *Network) transformerIndex(h Handle) (int, bool) {
	for i := range n.Transformers {
		if h != "" && n.Transformers[i].Handle == h {
			return i, true
		}
	}
	return 0, false
}

func (n *Network) switchIndex(h Handle) (int, bool) {
	for i := range n.Switches {
		if h != "" && n.Switches[i].Handle == h {
			return i, true
		}
	}
	return 0, false
}

func (n *Network) extGridIndex(h Handle) (int, bool) {
	for i := range n.ExtGrids {
		if h != "" && n.ExtGrids[i].Handle == h {
			return i, true
		}
	}
	return 0, false
}

func (n *Network) loadIndex(h Handle) (int, bool) {
	for i := range n.Loads {
		if h != "" && n.Loads[i].Handle == h {
			return i, true
		}
	}
	return 0, false
}
