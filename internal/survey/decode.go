package survey

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/hitoshi/hygienesurvey/internal/model"
)

// maxBodySize はアンケート送信ボディの読み取り上限（1MB）。
const maxBodySize = 1 << 20

// intFields は数値として受け付けるフィールド。それ以外は全て文字列。
var intFields = map[string]bool{
	"respondent_age": true,
}

// DecodeAnswers はリクエストボディをアンケート回答に変換する。
// ボディがmaxBodySizeを超える場合はPAYLOAD_TOO_LARGE、
// JSONオブジェクトとして解析できない場合はINVALID_REQUEST、
// フィールドの欠落（nullを含む）や型不一致がある場合は該当フィールドを列挙した
// VALIDATION_FAILEDの*model.APIErrorを返す。未知のフィールドは無視する。
func DecodeAnswers(r io.Reader) (*model.SurveyAnswers, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		return nil, model.NewInvalidRequestError()
	}
	if len(body) > maxBodySize {
		return nil, model.NewPayloadTooLargeError(maxBodySize)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, model.NewInvalidRequestError()
	}

	var invalid []string
	normalized := make(map[string]json.RawMessage, len(model.SurveyFields))
	for _, field := range model.SurveyFields {
		value, ok := raw[field]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			invalid = append(invalid, field)
			continue
		}
		if intFields[field] {
			n, ok := decodeInt(value)
			if !ok {
				invalid = append(invalid, field)
				continue
			}
			value = json.RawMessage(strconv.Itoa(n))
		} else {
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				invalid = append(invalid, field)
				continue
			}
		}
		normalized[field] = value
	}
	if len(invalid) > 0 {
		return nil, model.NewValidationError(invalid)
	}

	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, model.NewInvalidRequestError()
	}
	var answers model.SurveyAnswers
	if err := json.Unmarshal(encoded, &answers); err != nil {
		return nil, model.NewInvalidRequestError()
	}
	return &answers, nil
}

// decodeInt は整数、小数部が0の数値（42.0）、整数を表す文字列を受け付ける。
func decodeInt(value json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(value, &n); err == nil {
		return n, true
	}
	var f float64
	if err := json.Unmarshal(value, &f); err == nil {
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
