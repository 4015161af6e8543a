package domain

// PublisherPort fans a frame out to every live listener on key
// best effort: no listeners means the frame is dropped, resolved
// scans are persisted out of band so the stream is not the record
type PublisherPort interface {
	Publish(key string, f Frame)
}
