package dto

// RecordErrorResponse is a record the upload skipped
type RecordErrorResponse struct {
	Key    string `json:"key" example:"SCT211-0001/2020"`
	Reason string `json:"reason" example:"Already exists in the database."`
}

// IngestResponse summarises a committed bulk upload
type IngestResponse struct {
	Created int                   `json:"created" example:"12"`
	Errors  []RecordErrorResponse `json:"errors"`
}
