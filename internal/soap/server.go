package soap

import (
	"io"
	"net/http"

	"github.com/tinydlna/dlna-engine-go/internal/dlnaerr"
	"github.com/tinydlna/dlna-engine-go/internal/httpheader"
	"github.com/tinydlna/dlna-engine-go/internal/model"
)

// Dispatcher routes incoming SOAP control requests to the matching
// service's ActionHandler (spec §4.H.5, device-side direction; no
// original_source header covers this half, grounded directly on
// spec.md's action-dispatch description and the control-point client's
// envelope shape above).
type Dispatcher struct {
	device *model.DeviceInfo
}

// NewDispatcher binds a Dispatcher to the services of device.
func NewDispatcher(device *model.DeviceInfo) *Dispatcher {
	return &Dispatcher{device: device}
}

// ServeControl is the HTTP handler registered at a service's ControlURL.
// It parses the SOAPACTION header and envelope body, invokes the matching
// service's Handler, and writes back either a response envelope or a
// SOAP fault (spec §7's UPnPError codes).
func (d *Dispatcher) ServeControl(w http.ResponseWriter, r *http.Request) {
	serviceType, action, ok := httpheader.ParseSoapAction(r.Header.Get(httpheader.SoapAction))
	if !ok {
		d.writeFault(w, http.StatusBadRequest, 401, "Invalid Action")
		return
	}

	svc := d.device.ServiceByType(serviceType)
	if svc == nil || svc.Handler == nil {
		d.writeFault(w, http.StatusNotFound, 401, "Invalid Action")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		d.writeFault(w, http.StatusBadRequest, 402, "Invalid Args")
		return
	}

	args, err := ParseRequest(payload, action)
	if err != nil {
		d.writeFault(w, http.StatusBadRequest, 402, "Invalid Args")
		return
	}

	reply, err := svc.Handler(model.ActionRequest{
		ServiceType: serviceType,
		ActionName:  action,
		Arguments:   args,
	})
	if err != nil {
		code, desc := faultFromError(err)
		d.writeFault(w, http.StatusInternalServerError, code, desc)
		return
	}
	if !reply.Valid {
		d.writeFault(w, http.StatusInternalServerError, 501, "Action Failed")
		return
	}

	envelope := BuildResponseEnvelope(serviceType, action, reply.Arguments)
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.WriteHeader(http.StatusOK)
	w.Write(envelope)
}

func (d *Dispatcher) writeFault(w http.ResponseWriter, status, upnpCode int, desc string) {
	envelope := BuildFaultEnvelope(upnpCode, desc)
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.WriteHeader(status)
	w.Write(envelope)
}

// faultFromError maps an *dlnaerr.AppError's code to a SOAP UPnPError pair,
// defaulting to 501/Action Failed for anything it doesn't recognize.
func faultFromError(err error) (code int, description string) {
	appErr, ok := err.(*dlnaerr.AppError)
	if !ok {
		return 501, "Action Failed"
	}
	switch appErr.Code {
	case dlnaerr.CodeInvalidAction:
		return 401, "Invalid Action"
	case dlnaerr.CodeInvalidArgs:
		return 402, "Invalid Args"
	case dlnaerr.CodeActionNotAuthorized:
		return 606, "Action Not Authorized"
	default:
		return 501, appErr.Message
	}
}
