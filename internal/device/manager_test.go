package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tinydlna/dlna-engine-go/internal/config"
	"github.com/tinydlna/dlna-engine-go/internal/model"
)

func testDevice() *model.DeviceInfo {
	return &model.DeviceInfo{
		UDN:          "uuid:test-device",
		DeviceType:   "urn:schemas-upnp-org:device:MediaRenderer:1",
		FriendlyName: "Test Renderer",
		Manufacturer: "tinydlna",
		ModelName:    "engine",
		BaseURL:      "http://192.168.1.20:8200",
		Services: []model.ServiceInfo{
			{
				ServiceType: "urn:schemas-upnp-org:service:AVTransport:1",
				ServiceID:   "urn:upnp-org:serviceId:AVTransport",
				SCPDURL:     "/avt/scpd.xml",
				ControlURL:  "/avt/control",
				EventSubURL: "/avt/event",
				Handler: func(req model.ActionRequest) (model.ActionReply, error) {
					return model.NewActionReply(), nil
				},
			},
		},
	}
}

func TestNewManagerRejectsLocalhostBase(t *testing.T) {
	dev := testDevice()
	dev.BaseURL = "http://localhost:8200"

	_, err := NewManager(dev, config.Load(), nil)
	require.Error(t, err)
}

func TestNewManagerRejectsIncompleteService(t *testing.T) {
	dev := testDevice()
	dev.Services[0].ControlURL = ""

	_, err := NewManager(dev, config.Load(), nil)
	require.Error(t, err)
}

func TestNewManagerRejectsNilHandler(t *testing.T) {
	dev := testDevice()
	dev.Services[0].Handler = nil

	_, err := NewManager(dev, config.Load(), nil)
	require.Error(t, err)
}

func TestRegisterRoutesServesDescriptionAndRewrites(t *testing.T) {
	dev := testDevice()
	mgr, err := NewManager(dev, config.Load(), nil)
	require.NoError(t, err)

	router := chi.NewRouter()
	mgr.RegisterRoutes(router)

	for _, path := range []string{dev.DeviceDescriptionURL, "/", "/index.html"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
		require.Contains(t, w.Body.String(), "Test Renderer")
	}
}

func TestRegisterRoutesServesSCPD(t *testing.T) {
	dev := testDevice()
	mgr, err := NewManager(dev, config.Load(), nil)
	require.NoError(t, err)

	router := chi.NewRouter()
	mgr.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/avt/scpd.xml", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "actionList")
}

func TestRegisterRoutesDispatchesControl(t *testing.T) {
	dev := testDevice()
	mgr, err := NewManager(dev, config.Load(), nil)
	require.NoError(t, err)

	router := chi.NewRouter()
	mgr.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/avt/control", nil)
	req.Header.Set("SOAPACTION", `"urn:schemas-upnp-org:service:AVTransport:1#Stop"`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
