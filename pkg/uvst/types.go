package uvst

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Upstream endpoint paths.
const (
	PathAuthenticate = "/api/v1/authenticate"
	PathDocument     = "/api/v1/gb/abfrage"
	PathDeed         = "/api/v1/gb/urkunden"
)

// Environments.
const (
	EnvTest       = "test"
	EnvProduction = "production"
)

// Format is the requested document format.
type Format string

const (
	FormatXML  Format = "XML"
	FormatPDF  Format = "PDF"
	FormatHTML Format = "HTML"
)

// ParseFormat accepts xml, pdf or html in any case. An empty string means PDF.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatXML:
		return FormatXML, nil
	case FormatPDF, "":
		return FormatPDF, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", &ValidationError{Field: "format", Message: "must be one of XML, PDF, HTML"}
}

// HashPassword returns the lower-case hex MD5 digest the authenticate
// endpoint expects instead of the plain password.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// ClientInfo identifies the calling software. The upstream contract requires
// it on every query.
type ClientInfo struct {
	OperatingSystem string `json:"betriebssystem" xml:"Betriebssystem"`
	SoftwareName    string `json:"softwareName" xml:"SoftwareName"`
	SoftwareVersion string `json:"softwareVersion" xml:"SoftwareVersion"`
}

// AuthRequest is the authenticate body.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the authenticate answer.
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	TokenType   string `json:"tokenType"`
}

// DocumentQuery selects a current or historical extract.
type DocumentQuery struct {
	KG         string `json:"kg"`
	EZ         string `json:"ez"`
	Format     string `json:"format"`
	Historical bool   `json:"historical"`
	Signed     bool   `json:"signed"`
	Linked     bool   `json:"linked"`
	AsOf       string `json:"asOfDate,omitempty"`
}

// DeedQuery selects a deed by document number and year.
type DeedQuery struct {
	KG             string `json:"kg"`
	EZ             string `json:"ez,omitempty"`
	DocumentNumber string `json:"documentNumber"`
	Year           string `json:"year"`
	Format         string `json:"format"`
}

// DocumentRequest is the wire body of a document query.
type DocumentRequest struct {
	XMLName    xml.Name   `json:"-" xml:"GrundbuchAbfrage"`
	KGNummer   string     `json:"kgNummer" xml:"KGNummer"`
	EZNummer   string     `json:"ezNummer" xml:"EZNummer"`
	Format     Format     `json:"format" xml:"Format"`
	Historisch bool       `json:"historisch" xml:"Historisch"`
	Signiert   bool       `json:"signiert" xml:"Signiert"`
	Verlinkt   bool       `json:"verlinkt" xml:"Verlinkt"`
	Stichtag   string     `json:"stichtag,omitempty" xml:"Stichtag,omitempty"`
	ClientInfo ClientInfo `json:"clientInfo" xml:"ClientInfo"`
}

// DeedRequest is the wire body of a deed query.
type DeedRequest struct {
	XMLName        xml.Name   `json:"-" xml:"UrkundenAbfrage"`
	KGNummer       string     `json:"kgNummer" xml:"KGNummer"`
	EZNummer       string     `json:"ezNummer,omitempty" xml:"EZNummer,omitempty"`
	UrkundenNummer string     `json:"urkundenNummer" xml:"UrkundenNummer"`
	Jahr           string     `json:"jahr" xml:"Jahr"`
	Format         Format     `json:"format" xml:"Format"`
	ClientInfo     ClientInfo `json:"clientInfo" xml:"ClientInfo"`
}

var (
	kgPattern   = regexp.MustCompile(`^\d{5}$`)
	ezPattern   = regexp.MustCompile(`^\d+$`)
	yearPattern = regexp.MustCompile(`^\d{4}$`)
)

// BuildDocumentRequest validates q and fills in the client identification.
func BuildDocumentRequest(q DocumentQuery, info ClientInfo) (DocumentRequest, error) {
	if err := validateKG(q.KG); err != nil {
		return DocumentRequest{}, err
	}
	if err := validateEZ(q.EZ, true); err != nil {
		return DocumentRequest{}, err
	}
	format, err := ParseFormat(q.Format)
	if err != nil {
		return DocumentRequest{}, err
	}
	if err := validateDate(q.AsOf); err != nil {
		return DocumentRequest{}, err
	}
	return DocumentRequest{
		KGNummer:   strings.TrimSpace(q.KG),
		EZNummer:   strings.TrimSpace(q.EZ),
		Format:     format,
		Historisch: q.Historical,
		Signiert:   q.Signed,
		Verlinkt:   q.Linked,
		Stichtag:   q.AsOf,
		ClientInfo: info,
	}, nil
}

// BuildDeedRequest validates q and fills in the client identification.
func BuildDeedRequest(q DeedQuery, info ClientInfo) (DeedRequest, error) {
	if err := validateKG(q.KG); err != nil {
		return DeedRequest{}, err
	}
	if err := validateEZ(q.EZ, false); err != nil {
		return DeedRequest{}, err
	}
	if strings.TrimSpace(q.DocumentNumber) == "" {
		return DeedRequest{}, &ValidationError{Field: "documentNumber", Message: "is required"}
	}
	if !yearPattern.MatchString(q.Year) {
		return DeedRequest{}, &ValidationError{Field: "year", Message: "must be a four-digit year"}
	}
	format, err := ParseFormat(q.Format)
	if err != nil {
		return DeedRequest{}, err
	}
	return DeedRequest{
		KGNummer:       strings.TrimSpace(q.KG),
		EZNummer:       strings.TrimSpace(q.EZ),
		UrkundenNummer: strings.TrimSpace(q.DocumentNumber),
		Jahr:           q.Year,
		Format:         format,
		ClientInfo:     info,
	}, nil
}

// DebugXML renders the request in the XML shape the register uses, for
// operator inspection only.
func (r DocumentRequest) DebugXML() string { return renderXML(r) }

// DebugXML renders the request in the XML shape the register uses.
func (r DeedRequest) DebugXML() string { return renderXML(r) }

func renderXML(v any) string {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return xml.Header + string(out)
}

func validateKG(kg string) error {
	if !kgPattern.MatchString(strings.TrimSpace(kg)) {
		return &ValidationError{Field: "kg", Message: "must be exactly 5 digits"}
	}
	return nil
}

func validateEZ(ez string, required bool) error {
	ez = strings.TrimSpace(ez)
	if ez == "" && !required {
		return nil
	}
	if !ezPattern.MatchString(ez) {
		return &ValidationError{Field: "ez", Message: "must be a positive integer"}
	}
	if n, err := strconv.Atoi(ez); err != nil || n <= 0 {
		return &ValidationError{Field: "ez", Message: "must be a positive integer"}
	}
	return nil
}

func validateDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return &ValidationError{Field: "asOfDate", Message: "must be a date in YYYY-MM-DD form"}
	}
	return nil
}
