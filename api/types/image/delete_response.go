package image

// DeleteResponse is one record of the "DELETE /images/{name}" response. Each
// record holds either the tag that was removed or the ID of an image that
// was deleted.
type DeleteResponse struct {
	Untagged string `json:"Untagged,omitempty"`
	Deleted  string `json:"Deleted,omitempty"`
}
