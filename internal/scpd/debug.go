package scpd

import (
	"strconv"

	"github.com/beevik/etree"
)

// DebugTree builds an in-memory element tree for d, used by tests to
// diff the expected SCPD shape against the streaming Emit output without
// hand-parsing XML text. This is deliberately kept off the hot emit path
// (Emit never buffers a document tree, per spec §4.A); etree only serves
// the debug/test-assertion side, mirroring the other_examples pmomusic
// `pmoupnp-serviceinstance.go` use of etree for descriptor inspection.
func DebugTree(d *ServiceDescriptor) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("scpd")
	root.CreateAttr("xmlns", "urn:schemas-upnp-org:service-1-0")

	spec := root.CreateElement("specVersion")
	spec.CreateElement("major").SetText(strconv.Itoa(d.SpecMajor))
	spec.CreateElement("minor").SetText(strconv.Itoa(d.SpecMinor))

	actionList := root.CreateElement("actionList")
	for _, a := range d.Actions {
		action := actionList.CreateElement("action")
		action.CreateElement("name").SetText(a.Name)
		if len(a.Arguments) > 0 {
			argList := action.CreateElement("argumentList")
			for _, arg := range a.Arguments {
				argEl := argList.CreateElement("argument")
				argEl.CreateElement("name").SetText(arg.Name)
				argEl.CreateElement("direction").SetText(arg.Direction)
				argEl.CreateElement("relatedStateVariable").SetText(arg.RelatedStateVariable)
			}
		}
	}

	table := root.CreateElement("serviceStateTable")
	for _, v := range d.StateVariables {
		sv := table.CreateElement("stateVariable")
		if v.SendEvents {
			sv.CreateAttr("sendEvents", "yes")
		} else {
			sv.CreateAttr("sendEvents", "no")
		}
		sv.CreateElement("name").SetText(v.Name)
		sv.CreateElement("dataType").SetText(v.DataType)
	}

	return doc
}
