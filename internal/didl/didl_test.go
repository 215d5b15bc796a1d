package didl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinydlna/dlna-engine-go/internal/model"
)

func TestRenderItemsProducesItemAndContainer(t *testing.T) {
	out := RenderItems([]model.MediaItem{
		{ID: "1", ParentID: "0", Title: "Music", Class: model.ClassFolder},
		{
			ID: "2", ParentID: "1", Title: "Track & Title", Class: model.ClassMusic,
			ResourceURI: "http://host/track.mp3", MimeType: "audio/mpeg", Size: 4096,
		},
	})

	require.True(t, strings.HasPrefix(out, "<DIDL-Lite"))
	require.Contains(t, out, `<container id="1" parentID="0" restricted="0">`)
	require.Contains(t, out, `<item id="2" parentID="1" restricted="0">`)
	require.Contains(t, out, "Track &amp; Title")
	require.Contains(t, out, `protocolInfo="http-get:*:audio/mpeg:*"`)
	require.Contains(t, out, `size="4096"`)
	require.True(t, strings.HasSuffix(out, "</DIDL-Lite>"))
}

func TestRenderItemsEmptyParentIDDefaultsToRoot(t *testing.T) {
	out := RenderItems([]model.MediaItem{{ID: "5", Title: "Root Child", Class: model.ClassVideo}})
	require.Contains(t, out, `parentID="0"`)
}

func TestRenderItemsNoResForContainer(t *testing.T) {
	out := RenderItems([]model.MediaItem{{ID: "1", Class: model.ClassFolder, ResourceURI: "ignored"}})
	require.NotContains(t, out, "<res")
}
