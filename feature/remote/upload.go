package remote

import (
	"bytes"
	"encoding/json"
	"fmt"

	"scanmate/core/utils"
	"scanmate/feature/exporter"
)

// UploadLog is one audit log entry as the service expects it.
type UploadLog struct {
	SessionID   int                `json:"session_id"`
	ProductID   int                `json:"product_id"`
	Barcode     string             `json:"barcode"`
	EmployeeID  int                `json:"employee_id"`
	PreviousQty float64            `json:"previous_qty"`
	FinalQty    float64            `json:"final_qty"`
	ScanQty     float64            `json:"scan_qty"`
	Timestamp   exporter.Timestamp `json:"timestamp"`
}

// UploadItem is the counted quantity of one barcode and its history.
type UploadItem struct {
	CountedQty float64     `json:"counted_qty"`
	Logs       []UploadLog `json:"logs"`
}

// UploadPayload is keyed by barcode.
type UploadPayload struct {
	BarcodeData map[string]*UploadItem `json:"barcode_data"`
}

// UploadResult is the service verdict on an upload.
type UploadResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Updated int    `json:"updated"`
}

// DecodeUploadResponse unwraps {jsonrpc, id, result}. result is either the
// verdict object or a string holding its JSON encoding. Anything else is
// ErrUnknownResponseShape.
func DecodeUploadResponse(data []byte) (UploadResult, error) {
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrUnknownResponseShape, err)
	}

	inner := bytes.TrimSpace(envelope.Result)
	if len(inner) > 0 && inner[0] == '"' {
		var s string
		if err := json.Unmarshal(inner, &s); err != nil {
			return UploadResult{}, fmt.Errorf("%w: %v", ErrUnknownResponseShape, err)
		}
		inner = bytes.TrimSpace([]byte(s))
	}
	if len(inner) == 0 || inner[0] != '{' {
		return UploadResult{}, fmt.Errorf("%w: result is not an object", ErrUnknownResponseShape)
	}

	var fields map[string]any
	if err := json.Unmarshal(inner, &fields); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrUnknownResponseShape, err)
	}
	return UploadResult{
		Success: utils.ToBool(fields["success"]),
		Error:   utils.ToString(fields["error"]),
		Updated: utils.ToInt(fields["updated"]),
	}, nil
}
