package models

// Source is a retrieved chunk shown alongside an answer.
type Source struct {
	Root     string  `json:"root"`
	Folder   string  `json:"folder"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

// AskResponse is the answer to an AskRequest.
type AskResponse struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Thinking  string   `json:"thinking,omitempty"`
	Strategy  string   `json:"strategy"`
	Sources   []Source `json:"sources"`
	LatencyMS int64    `json:"latency_ms"`

	Functions []FunctionOutput `json:"function_outputs,omitempty"`
}

// FunctionOutput is one helper function run while answering.
type FunctionOutput struct {
	Function string                 `json:"function"`
	Args     map[string]interface{} `json:"args"`
	Result   interface{}            `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Trigger  string                 `json:"trigger"`
}

// Chunk is one retrieval hit in full.
type Chunk struct {
	Root     string  `json:"root"`
	Folder   string  `json:"folder"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// RetrieveResponse is the response for a RetrieveRequest.
type RetrieveResponse struct {
	Query     string  `json:"query"`
	Results   []Chunk `json:"results"`
	Total     int     `json:"total"`
	QueryTime int64   `json:"query_time_ms"`
}

// FunctionInfo describes a helper function exposed by the server.
type FunctionInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Doc       string `json:"doc"`
}

// FunctionList is the response of the function listing endpoint.
type FunctionList struct {
	Total     int            `json:"total_functions"`
	Functions []FunctionInfo `json:"functions"`
}

// FunctionResult is the response of a direct function call.
type FunctionResult struct {
	Status   string      `json:"status"`
	Function string      `json:"function"`
	Result   interface{} `json:"result"`
}
