package weatherlink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePayload = `{
	"temp_f": "65.3",
	"temp_c": "18.5",
	"relative_humidity": "54",
	"wind_degrees": 270,
	"wind_mph": "4.0",
	"wind_kt": "3.5",
	"davis_current_observation": {
		"pressure_tendency_string": "Rising Slowly",
		"solar_radiation": "412",
		"temp_day_high_f": "71.2",
		"rain_day_in": "0.12"
	}
}`

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"complete", Credentials{"u", "p", "t"}, false},
		{"missing user", Credentials{"", "p", "t"}, true},
		{"missing password", Credentials{"u", "", "t"}, true},
		{"placeholder token", Credentials{"u", "p", Placeholder}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.creds)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/NoaaExt.json" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c, err := NewClient(Credentials{User: "user1", Password: "pw", APIToken: "tok"}, WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	obs, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	for _, want := range []string{"user=user1", "pass=pw", "apiToken=tok"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q does not contain %q", gotQuery, want)
		}
	}

	if v, err := obs.Float("temp_f"); err != nil || v != 65.3 {
		t.Errorf("Float(temp_f) = %v, %v, want 65.3", v, err)
	}
	if v, err := obs.Float("wind_degrees"); err != nil || v != 270 {
		t.Errorf("Float(wind_degrees) = %v, %v, want 270", v, err)
	}

	cur := obs.Current()
	if s, ok := cur.String("pressure_tendency_string"); !ok || s != "Rising Slowly" {
		t.Errorf("String(pressure_tendency_string) = %q, %v", s, ok)
	}
	if v, err := cur.Float("rain_day_in"); err != nil || v != 0.12 {
		t.Errorf("Float(rain_day_in) = %v, %v, want 0.12", v, err)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid token"))
	}))
	defer srv.Close()

	c, err := NewClient(Credentials{"u", "p", "t"}, WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Fetch(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Fetch() error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusUnauthorized || se.Body != "invalid token" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestFetchBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	c, _ := NewClient(Credentials{"u", "p", "t"}, WithEndpoint(srv.URL))
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("Fetch() expected decode error, got nil")
	}
}

func TestFetchRedactsCredentials(t *testing.T) {
	c, _ := NewClient(Credentials{"u", "secretpw", "t"}, WithEndpoint("http://127.0.0.1:1"))
	_, err := c.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() expected connection error, got nil")
	}
	if strings.Contains(err.Error(), "secretpw") {
		t.Errorf("error leaks credentials: %v", err)
	}
}

func TestObservationFloat(t *testing.T) {
	obs := Observation{
		"str":   "12.5",
		"num":   float64(3),
		"bad":   "N/A",
		"null":  nil,
		"bool":  true,
		"slice": []any{1},
		"nan":   "NaN",
		"inf":   "-Inf",
		"jnum":  json.Number("+Inf"),
	}

	tests := []struct {
		key         string
		want        float64
		wantMissing bool
		wantErr     bool
	}{
		{"str", 12.5, false, false},
		{"num", 3, false, false},
		{"bool", 1, false, false},
		{"bad", 0, false, true},
		{"slice", 0, false, true},
		{"nan", 0, false, true},
		{"inf", 0, false, true},
		{"jnum", 0, false, true},
		{"null", 0, true, true},
		{"absent", 0, true, true},
	}

	for _, tt := range tests {
		got, err := obs.Float(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("Float(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if errors.Is(err, ErrFieldMissing) != tt.wantMissing {
			t.Errorf("Float(%q) missing = %v, want %v", tt.key, errors.Is(err, ErrFieldMissing), tt.wantMissing)
		}
		if got != tt.want {
			t.Errorf("Float(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}

	if sub := obs.Sub("str"); len(sub) != 0 {
		t.Errorf("Sub(str) = %v, want empty", sub)
	}
}
