package gcsarchive

import "testing"

func TestParseURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"valid", "gs://invoices-prod/invoices/abc.pdf", "invoices-prod", "invoices/abc.pdf", false},
		{"no scheme", "invoices-prod/abc.pdf", "", "", true},
		{"no object", "gs://invoices-prod", "", "", true},
		{"empty object", "gs://invoices-prod/", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := parseURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("got %s/%s, want %s/%s", bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/invoices/abc.pdf", "abc.pdf"},
		{"gs://bucket/abc.pdf", "abc.pdf"},
		{"gs://bucket", "bucket"},
	}

	for _, tt := range tests {
		if got := Filename(tt.uri); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
