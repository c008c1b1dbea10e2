package clitransport

import (
	"bufio"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdibleTuber/mother/pkg/protocol"
)

func newTestTransport(buf *bytes.Buffer) *Transport {
	return &Transport{out: bufio.NewWriter(buf)}
}

func TestRespond_WritesLineAndReturnsHandle(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTransport(&buf)

	handle, err := tr.Respond(context.Background(), ChannelID, "hello")
	require.NoError(t, err)
	assert.Equal(t, ChannelID, handle.ChannelID)
	assert.Equal(t, "hello\n", buf.String())
}

func TestRespondInThread_DelegatesToRespond(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTransport(&buf)

	parent := protocol.MessageHandle{ChannelID: ChannelID}
	_, err := tr.RespondInThread(context.Background(), parent, "threaded reply")
	require.NoError(t, err)
	assert.Equal(t, "threaded reply\n", buf.String())
}

func TestUploadFile_WritesAttachmentMarker(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTransport(&buf)

	err := tr.UploadFile(context.Background(), ChannelID, "/tmp/report.pdf", "report")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "/tmp/report.pdf")
	assert.Contains(t, buf.String(), "report")
}

func TestChannelIDConstant(t *testing.T) {
	assert.Equal(t, "cli", ChannelID)
}
