package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJoinPayload(t *testing.T) {
	p, err := decode[joinPayload]([]byte(`{"type":"join-room","roomId":"R1","micEnabled":true}`))
	require.NoError(t, err)
	require.Equal(t, "R1", p.RoomID)
	require.True(t, p.MicEnabled)
	require.False(t, p.VideoEnabled)
}

func TestDecodeJoinPayloadRequiresRoom(t *testing.T) {
	_, err := decode[joinPayload]([]byte(`{"type":"join-room"}`))
	require.Error(t, err)
}

func TestDecodeOfferPayloadRequiresTarget(t *testing.T) {
	_, err := decode[offerPayload]([]byte(`{"type":"sending-offer","description":{"type":"offer","sdp":"v=0"}}`))
	require.Error(t, err)

	p, err := decode[offerPayload]([]byte(`{"type":"sending-offer","target":"c2","description":{"type":"offer","sdp":"v=0"}}`))
	require.NoError(t, err)
	require.Equal(t, "c2", p.Target)
	require.Equal(t, "v=0", p.Description.SDP)
}

func TestDecodeChatPayloadIgnoresForgedSender(t *testing.T) {
	// A forged sender field is simply not part of the variant; the
	// authenticated connection identity is the only sender there is.
	p, err := decode[chatPayload]([]byte(`{"type":"send-chat-message","content":"hi","roomId":"R1","senderId":"P999"}`))
	require.NoError(t, err)
	require.Equal(t, "hi", p.Content)
	require.Equal(t, "R1", p.RoomID)
}

func TestDecodeChatPayloadRequiresContent(t *testing.T) {
	_, err := decode[chatPayload]([]byte(`{"type":"send-chat-message","roomId":"R1"}`))
	require.Error(t, err)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := decode[candidatePayload]([]byte(`{"type":`))
	require.Error(t, err)
}
