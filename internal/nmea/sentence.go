package nmea

import (
	"fmt"
	"strings"
	"time"

	"gnssrx/internal/checksum"
	"gnssrx/internal/gnss"
)

// Sentence formatters with a decoder.
const (
	TypeGGA = "GGA"
	TypeGLL = "GLL"
	TypeGSA = "GSA"
	TypeGST = "GST"
	TypeGSV = "GSV"
	TypeRMC = "RMC"
	TypeVTG = "VTG"
	TypeZDA = "ZDA"
)

// KeyOf maps a sentence address to its registry key: the three character
// formatter for talker sentences ("GNGGA" -> "GGA") and the whole address
// for proprietary ones ("PUBX").
func KeyOf(addr string) string {
	if strings.HasPrefix(addr, "P") || len(addr) <= 3 {
		return addr
	}
	return addr[len(addr)-3:]
}

// talkerOf returns the two character talker id of a talker sentence.
func talkerOf(addr string) string {
	if strings.HasPrefix(addr, "P") || len(addr) <= 3 {
		return ""
	}
	return addr[:len(addr)-3]
}

// Sentence is any sentence as its address and raw fields.
type Sentence struct {
	Address string   `json:"address"`
	Fields  []string `json:"fields"`
}

func (s *Sentence) Protocol() gnss.Protocol { return gnss.ProtocolNMEA }
func (s *Sentence) Key() string             { return KeyOf(s.Address) }

// Decode accepts any body; it is the fallback for sentences without a typed
// decoder.
func (s *Sentence) Decode(body []byte, _ time.Time) error {
	parts := strings.Split(string(body), ",")
	s.Address = parts[0]
	s.Fields = parts[1:]
	return nil
}

// Encode returns the body: address and fields joined by commas.
func (s *Sentence) Encode() ([]byte, error) {
	if s.Address == "" {
		return nil, fmt.Errorf("nmea: empty address")
	}
	body := s.Address
	if len(s.Fields) > 0 {
		body += "," + strings.Join(s.Fields, ",")
	}
	if err := checkBody(body); err != nil {
		return nil, err
	}
	return []byte(body), nil
}

// String returns the sentence with start character and checksum.
func (s *Sentence) String() string {
	body, err := s.Encode()
	if err != nil {
		return ""
	}
	out := Frame(body)
	return string(out[:len(out)-2])
}

func checkBody(body string) error {
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c < 0x20 || c > 0x7E || c == '$' || c == '!' || c == '*' {
			return fmt.Errorf("nmea: invalid character %q in body", c)
		}
	}
	if len(body)+4 > MaxLength {
		return fmt.Errorf("nmea: sentence longer than %d", MaxLength)
	}
	return nil
}

// Frame wraps a body with '$', the checksum and CRLF.
func Frame(body []byte) []byte {
	out := make([]byte, 0, len(body)+6)
	out = append(out, '$')
	out = append(out, body...)
	out = append(out, '*')
	out = checksum.AppendHex(out, checksum.NMEA(body))
	return append(out, '\r', '\n')
}

// EncodeFrame encodes m and frames it.
func EncodeFrame(m gnss.Encoder) ([]byte, error) {
	body, err := m.Encode()
	if err != nil {
		return nil, err
	}
	return Frame(body), nil
}

// split breaks a body into fields after checking the formatter.
func split(body []byte, want string) (talker string, f fieldReader, err error) {
	parts := strings.Split(string(body), ",")
	if KeyOf(parts[0]) != want {
		return "", f, fmt.Errorf("nmea: %s is not %s", parts[0], want)
	}
	return talkerOf(parts[0]), fieldReader{f: parts}, nil
}

// join builds a body from a talker, formatter and fields.
func join(talker, typ string, fields ...string) ([]byte, error) {
	if talker == "" {
		talker = "GN"
	}
	body := talker + typ + "," + strings.Join(fields, ",")
	if err := checkBody(body); err != nil {
		return nil, err
	}
	return []byte(body), nil
}
