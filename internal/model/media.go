package model

// MediaClass enumerates the ContentDirectory upnp:class values this engine
// distinguishes; spec Non-goals exclude full DIDL-Lite validation so this
// is intentionally coarse.
type MediaClass int

const (
	ClassUnknown MediaClass = iota
	ClassMusic
	ClassRadio
	ClassVideo
	ClassPhoto
	ClassFolder
)

// UpnpClass renders the DIDL-Lite upnp:class string for c.
func (c MediaClass) UpnpClass() string {
	switch c {
	case ClassMusic:
		return "object.item.audioItem.musicTrack"
	case ClassRadio:
		return "object.item.audioItem.audioBroadcast"
	case ClassVideo:
		return "object.item.videoItem"
	case ClassPhoto:
		return "object.item.imageItem.photo"
	case ClassFolder:
		return "object.container.storageFolder"
	default:
		return "object.item"
	}
}

// MediaItem is one ContentDirectory entry: an item (with a resource URI)
// or a container (folder), per spec §3. Grounded field-for-field on
// original_source's devices/MediaServer/MediaItem.h (id, parentID,
// restricted, title, res, mimeType), plus Size — an "additional optional
// metadata field" the original's own comment invites, used to populate
// DIDL-Lite's <res size="..."> attribute.
type MediaItem struct {
	ID          string
	ParentID    string
	Restricted  bool
	Title       string
	ResourceURI string
	MimeType    string
	Class       MediaClass
	Size        int64 // bytes, 0 when unknown
}

// NewMediaItem applies the ParentID default ("0" = root) noted in spec §3.
func NewMediaItem(id, title string, class MediaClass) MediaItem {
	return MediaItem{ID: id, ParentID: "0", Title: title, Class: class, Restricted: true}
}

// IsContainer reports whether the item represents a folder rather than a
// playable resource.
func (m MediaItem) IsContainer() bool {
	return m.Class == ClassFolder
}
