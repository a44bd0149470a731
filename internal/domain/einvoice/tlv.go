// Package einvoice builds the QR payload printed on tax invoices.
//
// The payload is a sequence of TLV fields (1-byte tag, 1-byte length, UTF-8
// value) in tag order, base64 encoded with the standard alphabet.
package einvoice

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
)

// Tag identifies a TLV field.
type Tag byte

const (
	TagSellerName Tag = 1
	TagVATNumber  Tag = 2
	TagTimestamp  Tag = 3
	TagTotal      Tag = 4
	TagVATTotal   Tag = 5
)

// MaxValueLen is the longest value a one-byte length can carry.
const MaxValueLen = 255

// TimestampLayout is the UTC layout of the timestamp field.
const TimestampLayout = "2006-01-02T15:04:05Z"

var tagNames = map[Tag]string{
	TagSellerName: "sellerName",
	TagVATNumber:  "vatNumber",
	TagTimestamp:  "timestamp",
	TagTotal:      "total",
	TagVATTotal:   "vatTotal",
}

func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("tag%d", byte(t))
}

// Payload is the content of the invoice QR code.
type Payload struct {
	SellerName string          `json:"sellerName"`
	VATNumber  string          `json:"vatNumber"`
	Timestamp  time.Time       `json:"timestamp"`
	Total      decimal.Decimal `json:"total"`
	VATTotal   decimal.Decimal `json:"vatTotal"`
}

// Field is one decoded TLV.
type Field struct {
	Tag   Tag
	Value string
}

// Fields returns the payload as TLV values in tag order.
func (p Payload) Fields() []Field {
	return []Field{
		{TagSellerName, strings.TrimSpace(p.SellerName)},
		{TagVATNumber, strings.TrimSpace(p.VATNumber)},
		{TagTimestamp, p.Timestamp.UTC().Format(TimestampLayout)},
		{TagTotal, types.RoundOMR(p.Total).StringFixed(types.OMRScale)},
		{TagVATTotal, types.RoundOMR(p.VATTotal).StringFixed(types.OMRScale)},
	}
}

// Validate checks required values and field lengths.
func (p Payload) Validate() error {
	missing := make(map[string]string)
	if strings.TrimSpace(p.SellerName) == "" {
		missing[TagSellerName.String()] = "required"
	}
	if strings.TrimSpace(p.VATNumber) == "" {
		missing[TagVATNumber.String()] = "required"
	}
	if p.Timestamp.IsZero() {
		missing[TagTimestamp.String()] = "required"
	}
	if len(missing) > 0 {
		return apperror.NewRequiredFields(missing)
	}

	for _, f := range p.Fields() {
		if len(f.Value) > MaxValueLen {
			return apperror.NewFieldTooLong(f.Tag.String(), len(f.Value), MaxValueLen)
		}
	}
	return nil
}

// EncodeTLV returns the raw TLV bytes.
func EncodeTLV(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range fields {
		if len(f.Value) > MaxValueLen {
			return nil, apperror.NewFieldTooLong(f.Tag.String(), len(f.Value), MaxValueLen)
		}
		buf.WriteByte(byte(f.Tag))
		buf.WriteByte(byte(len(f.Value)))
		buf.WriteString(f.Value)
	}
	return buf.Bytes(), nil
}

// Encode validates p and returns the base64 QR string.
func Encode(p Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	raw, err := EncodeTLV(p.Fields())
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeTLV splits raw bytes into fields. Truncated fields and repeated tags
// are errors.
func DecodeTLV(raw []byte) ([]Field, error) {
	var fields []Field
	seen := make(map[Tag]bool)
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			return nil, fmt.Errorf("truncated TLV header at offset %d", i)
		}
		tag, n := Tag(raw[i]), int(raw[i+1])
		i += 2
		if i+n > len(raw) {
			return nil, fmt.Errorf("truncated value of %s: want %d bytes, have %d", tag, n, len(raw)-i)
		}
		if seen[tag] {
			return nil, fmt.Errorf("duplicate %s", tag)
		}
		seen[tag] = true
		fields = append(fields, Field{Tag: tag, Value: string(raw[i : i+n])})
		i += n
	}
	return fields, nil
}

// Decode parses a base64 QR string. Unknown tags are skipped.
func Decode(s string) (Payload, error) {
	var p Payload
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return p, apperror.NewValidation("QR payload is not valid base64").WithCause(err)
	}

	fields, err := DecodeTLV(raw)
	if err != nil {
		return p, apperror.NewValidation("malformed QR payload").WithCause(err)
	}

	for _, f := range fields {
		switch f.Tag {
		case TagSellerName:
			p.SellerName = f.Value
		case TagVATNumber:
			p.VATNumber = f.Value
		case TagTimestamp:
			ts, err := time.Parse(TimestampLayout, f.Value)
			if err != nil {
				return p, apperror.NewValidation("malformed QR timestamp").WithCause(err)
			}
			p.Timestamp = ts
		case TagTotal, TagVATTotal:
			amount, err := decimal.NewFromString(f.Value)
			if err != nil {
				return p, apperror.NewValidation("malformed QR amount").
					WithDetail("field", f.Tag.String()).WithCause(err)
			}
			if f.Tag == TagTotal {
				p.Total = amount
			} else {
				p.VATTotal = amount
			}
		}
	}
	return p, nil
}
