package machineconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// FlexString is a value documents write either as a number or as a string,
// like machine ids (7 or "7") and alerting quantities (5 or "").
type FlexString string

var integerLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && (data[0] == '"' || data[0] == '\'') {
		var s string
		err := json5.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(data, &n)
	if err != nil {
		return fmt.Errorf("expected a string or a number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

// MarshalJSON writes integers back as numbers so generated documents keep
// the shape of hand-written ones.
func (f FlexString) MarshalJSON() ([]byte, error) {
	if integerLiteral.MatchString(string(f)) {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

func (f *FlexString) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	if value.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = FlexString(value.Value)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// SlotConfiguration is the desired end state of one slot. An empty
// ProductName means the slot must be cleared.
type SlotConfiguration struct {
	SlotNumber       int        `json:"slotNumber" yaml:"slotNumber"`
	ProductName      string     `json:"productName" yaml:"productName"`
	MachinePrice     float64    `json:"machinePrice" yaml:"machinePrice"`
	UserDefinedPrice float64    `json:"userDefinedPrice" yaml:"userDefinedPrice"`
	Capacity         int        `json:"capacity" yaml:"capacity"`
	Existing         int        `json:"existing" yaml:"existing"`
	WeChatDiscount   int        `json:"weChatDiscount" yaml:"weChatDiscount"`
	AlipayDiscount   int        `json:"alipayDiscount" yaml:"alipayDiscount"`
	IDCardDiscount   int        `json:"idCardDiscount" yaml:"idCardDiscount"`
	AlertingQuantity FlexString `json:"alertingQuantity" yaml:"alertingQuantity"`
}

// IsClear reports if the slot should be emptied instead of edited.
func (s SlotConfiguration) IsClear() bool {
	return strings.TrimSpace(s.ProductName) == ""
}

// MachineConfiguration is one machine and the slots it should end up with.
// MachineName is what the console's machine dropdown is matched against.
type MachineConfiguration struct {
	MachineID       FlexString          `json:"machineId" yaml:"machineId"`
	MachineName     string              `json:"machineName" yaml:"machineName"`
	MachineGrouping string              `json:"machineGrouping" yaml:"machineGrouping"`
	Serial          FlexString          `json:"serial,omitempty" yaml:"serial,omitempty"`
	RemoteID        FlexString          `json:"remoteId,omitempty" yaml:"remoteId,omitempty"`
	Slots           []SlotConfiguration `json:"slots" yaml:"slots"`
}

// Field is one editable scalar of the slot editor.
type Field int

const (
	FieldMachinePrice Field = iota
	FieldUserDefinedPrice
	FieldCapacity
	FieldExisting
	FieldWeChatDiscount
	FieldAlipayDiscount
	FieldIDCardDiscount
	FieldAlertingQuantity
)

// CoreFields are always reconciled, the rest only on request.
var CoreFields = []Field{FieldMachinePrice, FieldUserDefinedPrice}

var ExtendedFields = []Field{
	FieldCapacity,
	FieldExisting,
	FieldWeChatDiscount,
	FieldAlipayDiscount,
	FieldIDCardDiscount,
	FieldAlertingQuantity,
}

func (f Field) String() string {
	switch f {
	case FieldMachinePrice:
		return "machinePrice"
	case FieldUserDefinedPrice:
		return "userDefinedPrice"
	case FieldCapacity:
		return "capacity"
	case FieldExisting:
		return "existing"
	case FieldWeChatDiscount:
		return "weChatDiscount"
	case FieldAlipayDiscount:
		return "alipayDiscount"
	case FieldIDCardDiscount:
		return "idCardDiscount"
	case FieldAlertingQuantity:
		return "alertingQuantity"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// FieldValue is the canonical string form of a field's desired value, the
// form the console shows in its inputs.
func (s SlotConfiguration) FieldValue(f Field) string {
	switch f {
	case FieldMachinePrice:
		return FormatDecimal(s.MachinePrice)
	case FieldUserDefinedPrice:
		return FormatDecimal(s.UserDefinedPrice)
	case FieldCapacity:
		return strconv.Itoa(s.Capacity)
	case FieldExisting:
		return strconv.Itoa(s.Existing)
	case FieldWeChatDiscount:
		return strconv.Itoa(s.WeChatDiscount)
	case FieldAlipayDiscount:
		return strconv.Itoa(s.AlipayDiscount)
	case FieldIDCardDiscount:
		return strconv.Itoa(s.IDCardDiscount)
	case FieldAlertingQuantity:
		return string(s.AlertingQuantity)
	}
	return ""
}

// FormatDecimal prints the shortest decimal that round-trips, 2 as "2"
// and 2.5 as "2.5".
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
