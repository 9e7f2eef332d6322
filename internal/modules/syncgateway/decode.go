package syncgateway

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"venuebook/internal/domain"
)

// Inbound is a normalised remote change, whatever shape it arrived in.
// Optional fields are nil or empty when the sender left them out.
type Inbound struct {
	Shape       string
	StableID    string
	Action      domain.ChangeAction
	VenueID     int64
	Date        *time.Time
	Start       *domain.Clock
	End         *domain.Clock
	SourceKind  domain.SourceKind
	SourceID    *int64
	Description string
	OwnerPhone  string
	PayerPhone  string
	Price       *float64
}

type fields map[string]json.RawMessage

// get returns the first key present with a non-null value.
func (f fields) get(keys []string) (string, json.RawMessage, bool) {
	for _, k := range keys {
		raw, ok := f[k]
		if ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return k, raw, true
		}
	}
	return "", nil, false
}

func (f fields) hasAny(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return true
		}
	}
	return false
}

// wireShape names the keys one producer uses for each field.
type wireShape struct {
	name        string
	detect      []string
	stableID    []string
	action      []string
	venueID     []string
	date        []string
	start       []string
	end         []string
	kind        []string
	sourceID    []string
	description []string
	ownerPhone  []string
	payerPhone  []string
	price       []string
}

var (
	// nativeShape is what Event marshals to.
	nativeShape = wireShape{
		name:        "native",
		detect:      []string{"stableId"},
		stableID:    []string{"stableId"},
		action:      []string{"action"},
		venueID:     []string{"venueId"},
		date:        []string{"date"},
		start:       []string{"start"},
		end:         []string{"end"},
		kind:        []string{"sourceKind"},
		sourceID:    []string{"sourceId"},
		description: []string{"description"},
		ownerPhone:  []string{"ownerPhone"},
		payerPhone:  []string{"payerPhone"},
		price:       []string{"price"},
	}

	// snakeShape is the remote system's serializer output.
	snakeShape = wireShape{
		name:        "remote_snake",
		detect:      []string{"terrain_id", "heure_debut", "heure_fin", "date_indisponibilite", "type_reservation"},
		stableID:    []string{"uuid"},
		action:      []string{"action"},
		venueID:     []string{"terrain_id"},
		date:        []string{"date_indisponibilite", "date"},
		start:       []string{"heure_debut"},
		end:         []string{"heure_fin"},
		kind:        []string{"type_reservation"},
		sourceID:    []string{"source_id"},
		description: []string{"description"},
		ownerPhone:  []string{"proprietaire_telephone", "num_tel", "numTel"},
		payerPhone:  []string{"joueur_num_tel", "joueur_numTel", "client_telephone"},
		price:       []string{"prix", "prix_total"},
	}

	// camelShape is the remote system's event record, mirrored from ours.
	camelShape = wireShape{
		name:        "remote_camel",
		detect:      []string{"uuid", "terrainId", "heureDebut", "heureFin", "typeReservation"},
		stableID:    []string{"uuid"},
		action:      []string{"action"},
		venueID:     []string{"terrainId"},
		date:        []string{"date"},
		start:       []string{"heureDebut"},
		end:         []string{"heureFin"},
		kind:        []string{"typeReservation"},
		sourceID:    []string{"sourceId"},
		description: []string{"description"},
		ownerPhone:  []string{"proprietaireTelephone", "numTel"},
		payerPhone:  []string{"joueurNumTel", "joueur_numTel", "clientTelephone"},
		price:       []string{"prix", "prixTotal"},
	}

	// Order matters: snake keys are checked before the bare "uuid" that
	// both remote shapes share.
	shapes = []wireShape{nativeShape, snakeShape, camelShape}
)

// Decode parses one inbound message. Any problem is reported as a
// *domain.ParseError naming the offending field.
func Decode(raw []byte) (Inbound, error) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return Inbound{}, &domain.ParseError{Reason: "payload is not a JSON object"}
	}
	for _, shape := range shapes {
		if f.hasAny(shape.detect...) {
			return shape.decode(f)
		}
	}
	return Inbound{}, &domain.ParseError{Reason: "unrecognised message shape"}
}

func (s wireShape) decode(f fields) (Inbound, error) {
	in := Inbound{Shape: s.name}

	key, raw, ok := f.get(s.stableID)
	if !ok {
		return in, &domain.ParseError{Field: s.stableID[0], Reason: "is required"}
	}
	id, err := decodeString(raw)
	if err != nil || strings.TrimSpace(id) == "" {
		return in, &domain.ParseError{Field: key, Reason: "must be a non-empty string"}
	}
	in.StableID = strings.TrimSpace(id)

	key, raw, ok = f.get(s.action)
	if !ok {
		return in, &domain.ParseError{Field: s.action[0], Reason: "is required"}
	}
	action, err := decodeString(raw)
	if err != nil {
		return in, &domain.ParseError{Field: key, Reason: "must be a string"}
	}
	if in.Action, ok = parseAction(action); !ok {
		return in, &domain.ParseError{Field: key, Reason: fmt.Sprintf("unknown action %q", action)}
	}

	if key, raw, ok = f.get(s.venueID); ok {
		if in.VenueID, err = decodeInt(raw); err != nil || in.VenueID <= 0 {
			return in, &domain.ParseError{Field: key, Reason: "must be a positive integer"}
		}
	}
	if key, raw, ok = f.get(s.date); ok {
		d, err := decodeDate(raw)
		if err != nil {
			return in, &domain.ParseError{Field: key, Reason: err.Error()}
		}
		in.Date = &d
	}
	if key, raw, ok = f.get(s.start); ok {
		c, err := decodeClock(raw)
		if err != nil {
			return in, &domain.ParseError{Field: key, Reason: err.Error()}
		}
		in.Start = &c
	}
	if key, raw, ok = f.get(s.end); ok {
		c, err := decodeClock(raw)
		if err != nil {
			return in, &domain.ParseError{Field: key, Reason: err.Error()}
		}
		in.End = &c
	}
	if key, raw, ok = f.get(s.kind); ok {
		kind, err := decodeString(raw)
		if err != nil {
			return in, &domain.ParseError{Field: key, Reason: "must be a string"}
		}
		if in.SourceKind, ok = domain.ParseSourceKind(kind); !ok {
			return in, &domain.ParseError{Field: key, Reason: fmt.Sprintf("unknown kind %q", kind)}
		}
	}
	if key, raw, ok = f.get(s.sourceID); ok {
		sid, err := decodeInt(raw)
		if err != nil {
			return in, &domain.ParseError{Field: key, Reason: "must be an integer"}
		}
		in.SourceID = &sid
	}
	if key, raw, ok = f.get(s.description); ok {
		if in.Description, err = decodeString(raw); err != nil {
			return in, &domain.ParseError{Field: key, Reason: "must be a string"}
		}
	}
	if key, raw, ok = f.get(s.ownerPhone); ok {
		if in.OwnerPhone, err = decodeString(raw); err != nil {
			return in, &domain.ParseError{Field: key, Reason: "must be a string or number"}
		}
	}
	if key, raw, ok = f.get(s.payerPhone); ok {
		if in.PayerPhone, err = decodeString(raw); err != nil {
			return in, &domain.ParseError{Field: key, Reason: "must be a string or number"}
		}
	}
	if key, raw, ok = f.get(s.price); ok {
		p, err := decodeFloat(raw)
		if err != nil || p < 0 {
			return in, &domain.ParseError{Field: key, Reason: "must be a non-negative number"}
		}
		in.Price = &p
	}

	if in.Action == domain.ActionCreated {
		if in.Date == nil {
			return in, &domain.ParseError{Field: s.date[0], Reason: "is required for created"}
		}
		if in.Start == nil {
			return in, &domain.ParseError{Field: s.start[0], Reason: "is required for created"}
		}
	}
	return in, nil
}

func parseAction(s string) (domain.ChangeAction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created", "create":
		return domain.ActionCreated, true
	case "updated", "update":
		return domain.ActionUpdated, true
	case "deleted", "delete":
		return domain.ActionDeleted, true
	}
	return "", false
}

// decodeString accepts a JSON string or number; remote phone numbers are
// sometimes sent as integers.
func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func decodeInt(raw json.RawMessage) (int64, error) {
	s, err := decodeString(raw)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	s, err := decodeString(raw)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// decodeDate accepts [y, m, d] or an ISO date, optionally followed by a time.
func decodeDate(raw json.RawMessage) (time.Time, error) {
	var parts []int
	if err := json.Unmarshal(raw, &parts); err == nil {
		if len(parts) < 3 {
			return time.Time{}, fmt.Errorf("date array needs year, month and day")
		}
		y, m, d := parts[0], parts[1], parts[2]
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if t.Year() != y || int(t.Month()) != m || t.Day() != d {
			return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d", y, m, d)
		}
		return t, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("must be a date string or [y, m, d]")
	}
	s = strings.TrimSpace(s)
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// decodeClock accepts [h, m] or [h, m, s, ...] or "HH:MM[:SS[.fff]]". Seconds
// and below are dropped.
func decodeClock(raw json.RawMessage) (domain.Clock, error) {
	var parts []int
	if err := json.Unmarshal(raw, &parts); err == nil {
		if len(parts) < 2 {
			return 0, fmt.Errorf("time array needs hour and minute")
		}
		h, m := parts[0], parts[1]
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return 0, fmt.Errorf("invalid time %02d:%02d", h, m)
		}
		return domain.NewClock(h, m), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("must be a time string or [h, m]")
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	c, err := domain.ParseClock(s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return c, nil
}
