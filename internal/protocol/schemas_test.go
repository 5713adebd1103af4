package protocol_test

import (
	"encoding/json"
	"testing"

	"voxeledit.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	ok := func(name string, validate func([]byte) error, raw string) {
		t.Helper()
		if err := validate([]byte(raw)); err != nil {
			t.Fatalf("%s: expected valid, got %v", name, err)
		}
	}
	bad := func(name string, validate func([]byte) error, raw string) {
		t.Helper()
		if err := validate([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	ok("hello", v.ValidateHello, `{"type":"HELLO","protocol_version":"1.0","client_name":"host","want_chunks":true}`)
	bad("hello type", v.ValidateHello, `{"type":"CMD","protocol_version":"1.0"}`)

	ok("set", v.ValidateCmd, `{
	  "type":"CMD","protocol_version":"1.0","id":"c1","op":"SET_VOXEL",
	  "chunk":[0,0,0],"pos":[1,2,3],
	  "voxel":{"empty":false,"faces":[{"material":"stone"},{},{},{},{},{"surface":"B1","override":true}]}
	}`)
	ok("rect", v.ValidateCmd, `{
	  "type":"CMD","protocol_version":"1.0","id":"c2","op":"RECT_SELECT",
	  "from":{"chunk":[0,0,0],"pos":[0,0,0],"dir":"UP"},
	  "to":{"chunk":[-1,0,0],"pos":[31,0,0],"dir":"UP"}
	}`)
	ok("flood", v.ValidateCmd, `{
	  "type":"CMD","protocol_version":"1.0","id":"c3","op":"FLOOD_FILL","by_material":true,
	  "faces":[{"chunk":[0,0,0],"pos":[0,0,0],"dir":"LEFT"}]
	}`)
	ok("bootstrap", v.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c4","op":"BOOTSTRAP"}`)

	bad("missing voxel", v.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c5","op":"SET_VOXEL","chunk":[0,0,0],"pos":[0,0,0]}`)
	bad("bad dir", v.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c6","op":"FLOOD_FILL","faces":[{"chunk":[0,0,0],"pos":[0,0,0],"dir":"NORTH"}]}`)
	bad("empty faces", v.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c7","op":"EXTRUDE","faces":[]}`)
	bad("short vec", v.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c8","op":"GET_VOXEL","chunk":[0,0],"pos":[0,0,0]}`)
	bad("unknown op", v.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c9","op":"DELETE_ALL"}`)
	bad("rect without anchor", v.ValidateCmd, `{"type":"CMD","protocol_version":"1.0","id":"c10","op":"RECT_SELECT","to":{"chunk":[0,0,0],"pos":[0,0,0],"dir":"UP"}}`)
	bad("not json", v.ValidateCmd, `{`)
}

func TestResultFailClearsPayload(t *testing.T) {
	cmd := protocol.CmdMsg{ID: "x", Op: protocol.OpFloodFill}
	r := protocol.NewResult(cmd)
	r.Faces = []protocol.FaceRef{{Dir: "UP"}}
	r = r.Fail(protocol.ErrInvalidTarget, "nope")
	if r.OK || r.Faces != nil || r.Code != protocol.ErrInvalidTarget {
		t.Fatalf("unexpected result %+v", r)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	base, err := protocol.DecodeBase(b)
	if err != nil || base.Type != protocol.TypeResult || base.ProtocolVersion != protocol.Version {
		t.Fatalf("unexpected base %+v %v", base, err)
	}
}
