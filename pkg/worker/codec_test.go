package worker

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

func TestDefaultCodecDecode(t *testing.T) {
	payload := `{"provider":"bitbucket","repo":"notifico","channel":"#commits","text":"[notifico] alice pushed 1 commit to master","strip":true}`
	msg := message.NewMessage(watermill.NewUUID(), []byte(payload))
	msg.Metadata.Set("request_id", "req-1")

	d, err := DefaultCodec{}.Decode("irc.notifico", msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Provider != "bitbucket" || d.Repo != "notifico" || d.Channel != "#commits" {
		t.Fatalf("unexpected delivery: %+v", d)
	}
	if d.Topic != "irc.notifico" {
		t.Fatalf("expected topic from subscription, got %q", d.Topic)
	}
	if !d.Strip {
		t.Fatalf("expected strip flag set")
	}
	if d.Metadata["request_id"] != "req-1" {
		t.Fatalf("expected metadata copied, got %v", d.Metadata)
	}
	if string(d.Payload) != payload {
		t.Fatalf("expected raw payload preserved")
	}
}

func TestDefaultCodecMetadataFallback(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"text":"hello"}`))
	msg.Metadata.Set("provider", "github")
	msg.Metadata.Set("repo", "notifico")
	msg.Metadata.Set("strip", "true")

	d, err := DefaultCodec{}.Decode("lines", msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Provider != "github" {
		t.Fatalf("expected provider from metadata, got %q", d.Provider)
	}
	if d.Repo != "notifico" {
		t.Fatalf("expected repo from metadata, got %q", d.Repo)
	}
	if !d.Strip {
		t.Fatalf("expected strip from metadata")
	}
	if d.Text != "hello" {
		t.Fatalf("unexpected text: %q", d.Text)
	}
}

func TestDefaultCodecMalformedPayload(t *testing.T) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"text":`))
	if _, err := (DefaultCodec{}).Decode("lines", msg); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
