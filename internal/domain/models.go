package domain

// Resource is one unique piece of resolved content.
// ID is a content-id ("img1") for embedded images and the base filename for attachments.
type Resource struct {
	MainType string `json:"maintype"`
	SubType  string `json:"subtype"`
	ID       string `json:"id"`
	Content  []byte `json:"content"` // base64 in JSON
}

// CollectImagesRequest is the payload for POST /api/images.
type CollectImagesRequest struct {
	HTML    string `json:"html"`
	Charset string `json:"charset,omitempty"` // defaults to UTF-8
}

// CollectImagesResponse carries the rewritten document and its related images.
type CollectImagesResponse struct {
	HTML      string     `json:"html"`
	Resources []Resource `json:"resources"`
}

// CollectAttachmentsRequest is the payload for POST /api/attachments.
type CollectAttachmentsRequest struct {
	References []string `json:"references"`
}

// CollectAttachmentsResponse lists the unique attachments in input order.
type CollectAttachmentsResponse struct {
	Resources []Resource `json:"resources"`
}
