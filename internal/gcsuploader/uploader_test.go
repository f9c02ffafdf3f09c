package gcsuploader

import "testing"

func TestExtractFilename(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/folder/file.pdf", "file.pdf"},
		{"gs://bucket/file.pdf", "file.pdf"},
		{"gs://bucket/a/b/c/fatura-marco.pdf", "fatura-marco.pdf"},
		{"gs://bucket", "bucket"},
	}

	for _, tc := range tests {
		if got := ExtractFilename(tc.uri); got != tc.want {
			t.Errorf("ExtractFilename(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/folder/file.pdf", "bucket", "folder/file.pdf", false},
		{"gs://bucket/file.pdf", "bucket", "file.pdf", false},
		{"gs://bucket", "", "", true},
		{"gs://bucket/", "", "", true},
		{"http://bucket/file.pdf", "", "", true},
		{"", "", "", true},
	}

	for _, tc := range tests {
		bucket, object, err := splitURI(tc.uri)
		if tc.wantErr {
			if err == nil {
				t.Errorf("splitURI(%q) expected error, got %q/%q", tc.uri, bucket, object)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitURI(%q) unexpected error: %v", tc.uri, err)
			continue
		}
		if bucket != tc.wantBucket || object != tc.wantObject {
			t.Errorf("splitURI(%q) = %q/%q, want %q/%q", tc.uri, bucket, object, tc.wantBucket, tc.wantObject)
		}
	}
}
