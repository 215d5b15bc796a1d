package scpd

import (
	"io"
	"strconv"

	"github.com/tinydlna/dlna-engine-go/internal/xmlstream"
)

// Emit streams d's SCPD XML to w using the engine's incremental printer
// (spec §4.A), never buffering the whole document — the same constraint
// the original's Print-based printDescr() methods satisfy by writing
// straight to the socket.
func Emit(w io.Writer, d *ServiceDescriptor) error {
	p := xmlstream.NewPrinter(w)
	if err := p.Declaration(); err != nil {
		return err
	}
	if err := p.StartTag("", "scpd", `xmlns="urn:schemas-upnp-org:service-1-0"`); err != nil {
		return err
	}

	if err := p.StartTag("", "specVersion", ""); err != nil {
		return err
	}
	if err := p.Leaf("", "major", "", strconv.Itoa(d.SpecMajor)); err != nil {
		return err
	}
	if err := p.Leaf("", "minor", "", strconv.Itoa(d.SpecMinor)); err != nil {
		return err
	}
	if err := p.EndTag("", "specVersion"); err != nil {
		return err
	}

	if err := emitActionList(p, d.Actions); err != nil {
		return err
	}
	if err := emitStateTable(p, d.StateVariables); err != nil {
		return err
	}

	return p.EndTag("", "scpd")
}

func emitActionList(p *xmlstream.Printer, actions []Action) error {
	if err := p.StartTag("", "actionList", ""); err != nil {
		return err
	}
	for _, a := range actions {
		if err := p.StartTag("", "action", ""); err != nil {
			return err
		}
		if err := p.Leaf("", "name", "", a.Name); err != nil {
			return err
		}
		if len(a.Arguments) > 0 {
			if err := p.StartTag("", "argumentList", ""); err != nil {
				return err
			}
			for _, arg := range a.Arguments {
				if err := p.Argument(arg.Name, arg.Direction, arg.RelatedStateVariable); err != nil {
					return err
				}
			}
			if err := p.EndTag("", "argumentList"); err != nil {
				return err
			}
		}
		if err := p.EndTag("", "action"); err != nil {
			return err
		}
	}
	return p.EndTag("", "actionList")
}

func emitStateTable(p *xmlstream.Printer, vars []StateVariable) error {
	if err := p.StartTag("", "serviceStateTable", ""); err != nil {
		return err
	}
	for _, v := range vars {
		attrs := `sendEvents="no"`
		if v.SendEvents {
			attrs = `sendEvents="yes"`
		}
		if err := p.StartTag("", "stateVariable", attrs); err != nil {
			return err
		}
		if err := p.Leaf("", "name", "", v.Name); err != nil {
			return err
		}
		if err := p.Leaf("", "dataType", "", v.DataType); err != nil {
			return err
		}
		if len(v.AllowedValues) > 0 {
			if err := p.StartTag("", "allowedValueList", ""); err != nil {
				return err
			}
			for _, av := range v.AllowedValues {
				if err := p.Leaf("", "allowedValue", "", av); err != nil {
					return err
				}
			}
			if err := p.EndTag("", "allowedValueList"); err != nil {
				return err
			}
		}
		if v.Minimum != "" || v.Maximum != "" {
			if err := p.StartTag("", "allowedValueRange", ""); err != nil {
				return err
			}
			if v.Minimum != "" {
				if err := p.Leaf("", "minimum", "", v.Minimum); err != nil {
					return err
				}
			}
			if v.Maximum != "" {
				if err := p.Leaf("", "maximum", "", v.Maximum); err != nil {
					return err
				}
			}
			if v.Step != "" {
				if err := p.Leaf("", "step", "", v.Step); err != nil {
					return err
				}
			}
			if err := p.EndTag("", "allowedValueRange"); err != nil {
				return err
			}
		}
		if v.DefaultValue != "" {
			if err := p.Leaf("", "defaultValue", "", v.DefaultValue); err != nil {
				return err
			}
		}
		if err := p.EndTag("", "stateVariable"); err != nil {
			return err
		}
	}
	return p.EndTag("", "serviceStateTable")
}
