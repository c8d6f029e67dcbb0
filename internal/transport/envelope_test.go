package transport

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aaronzipp/link-race/internal/models"
)

var alice = models.PlayerProfile{PlayerID: "a1", Name: "Alice"}

func TestEnvelopeRoundTrip(t *testing.T) {
	page := models.NewPage("https://en.m.wikipedia.org/wiki/Apple", "Apple")
	player := models.NewPlayer(alice, true)
	player.StartedNewRace(page, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	player.Seq = 4

	vote := models.NewVoteInfo([]models.Page{page})
	vote.PlayerVoted(alice, page)

	msgs := []models.Message{
		models.PlayerSnapshot(*player),
		models.VoteChoice(page),
		models.PreRaceConfigMessage(models.PreRaceConfig{StartingPage: page, VoteInfo: vote}),
		models.ResultsMessage(models.ResultsInfo{
			Players:       []models.Player{*player},
			RacePoints:    map[models.PlayerProfile]int{alice: 3},
			SessionPoints: map[models.PlayerProfile]int{alice: 7},
		}),
		models.FatalErrorMessage(models.FatalHostLeft),
		models.Int(models.IntBonusPoints, 4),
	}
	for _, msg := range msgs {
		t.Run(string(msg.Type), func(t *testing.T) {
			data, err := Encode(alice, msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			d, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if d.From != alice || d.PeerLeft {
				t.Errorf("delivery header = %+v", d)
			}
			if !reflect.DeepEqual(d.Message, msg) {
				t.Errorf("round trip changed message:\n got %+v\nwant %+v", d.Message, msg)
			}
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string]string{
		"not json":        `{`,
		"type mismatch":   `{"type":"VOTE","from":"a:b","payload":{"type":"INT","int":{"type":"ready","value":1}}}`,
		"missing payload": `{"type":"PLAYER","from":"a:b","payload":{"type":"PLAYER"}}`,
		"unknown type":    `{"type":"NOPE","from":"a:b","payload":{"type":"NOPE"}}`,
	}
	for name, raw := range tests {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("%s: decoded without error", name)
		}
	}
}

func TestPeerLeftEnvelope(t *testing.T) {
	data, err := EncodePeerLeft(alice)
	if err != nil {
		t.Fatalf("EncodePeerLeft: %v", err)
	}
	if !strings.Contains(string(data), TypePeerLeft) {
		t.Errorf("wire form %s", data)
	}
	d, err := Decode(data)
	if err != nil || !d.PeerLeft || d.From != alice {
		t.Errorf("decoded %+v, %v", d, err)
	}
}

func TestEncodeRejectsEmptyPayload(t *testing.T) {
	if _, err := Encode(alice, models.Message{Type: models.MsgRaceConfig}); err == nil {
		t.Error("encoded a message without payload")
	}
}
