package dto

type PublishLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	TS  int64   `json:"ts"`
}

type PublishChatRequest struct {
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

type PublishStatusRequest struct {
	Kind string `json:"kind"`
	TS   int64  `json:"ts"`
}
