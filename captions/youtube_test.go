package captions

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLineBody(t *testing.T) {
	line := Line{
		CID:       "abcd-efgh",
		Seq:       7,
		Timestamp: "2021-07-01T00:00:00.123Z",
		Region:    "reg1",
		Text:      "witajće k nam",
	}
	body, err := line.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	want := "2021-07-01T00:00:00.123 region:reg1\nwitajće k nam: 7\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestLineBodyRejectsBadTimestamp(t *testing.T) {
	line := Line{Timestamp: "yesterday-ish"}
	if _, err := line.Body(); err == nil {
		t.Error("Body accepted an unparseable timestamp")
	}
}

func TestUpload(t *testing.T) {
	var gotQuery, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	u := NewUploader(server.URL)
	resp, err := u.Upload(context.Background(), Line{
		CID:       "cid-1",
		Seq:       3,
		Timestamp: "2021-07-01T02:00:00Z",
		Region:    "reg1",
		Text:      "hello",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if string(resp) != "ok" {
		t.Errorf("response = %q", resp)
	}
	if gotQuery != "cid=cid-1&seq=3" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotType != "text/plain" {
		t.Errorf("content type = %q", gotType)
	}
	if gotBody != "2021-07-01T02:00:00.000 region:reg1\nhello: 3\n" {
		t.Errorf("body = %q", gotBody)
	}
}
