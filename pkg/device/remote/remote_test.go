package remote

import (
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledsign/pkg/bitmap"
	"ledsign/pkg/device/virtual"
	"ledsign/pkg/proto"
	"ledsign/pkg/store"
	"ledsign/pkg/transmit"
)

type side struct {
	fs   afero.Fs
	st   *store.Store
	ctrl *virtual.Mocker
}

func newSide(t *testing.T, online bool) *side {
	fs := afero.NewMemMapFs()
	st, err := store.New(fs, "images", zap.NewNop())
	require.NoError(t, err)
	return &side{fs: fs, st: st, ctrl: virtual.Mock(zap.NewNop(), online)}
}

func (s *side) images(t *testing.T) int {
	infos, err := afero.ReadDir(s.fs, "images")
	require.NoError(t, err)
	return len(infos)
}

func setup(t *testing.T, online bool) (*transmit.Service, *side, *side) {
	far := newSide(t, online)
	farTx := transmit.New(far.st, transmit.Local(far.ctrl, zap.NewNop()), zap.NewNop())

	rs, err := NewRPCServer(farTx, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)

	near := newSide(t, true)
	client, err := New(srv.Listener.Addr().String(), near.fs, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return transmit.New(near.st, client.Factory(), zap.NewNop()), near, far
}

func TestTransmitThroughProxy(t *testing.T) {
	tx, near, far := setup(t, true)

	tg, err := proto.NewTarget("192.168.156.68", 5200, 128, 64)
	require.NoError(t, err)

	bmp := bitmap.New(128, 64)
	bmp.SetBit(5, 5, true)

	out := tx.Send(bmp, tg)
	assert.True(t, out.Success)
	assert.True(t, out.Attempted)
	assert.Equal(t, 0, near.images(t))
	assert.Equal(t, 0, far.images(t))
	assert.Contains(t, far.ctrl.Calls(), "send-picture")
	assert.Empty(t, near.ctrl.Calls())
}

func TestProxyNotConnected(t *testing.T) {
	tx, near, far := setup(t, false)

	tg, err := proto.NewTarget("192.168.156.68", 5200, 128, 64)
	require.NoError(t, err)

	out := tx.Send(bitmap.New(128, 64), tg)
	assert.False(t, out.Success)
	assert.False(t, out.Attempted)
	assert.Equal(t, 1, near.images(t))
	assert.Equal(t, 1, far.images(t))
}

func TestServiceRejectsBadRequest(t *testing.T) {
	svc := &Service{tx: nil, logger: zap.NewNop()}

	var reply TransmitReply
	err := svc.Transmit(&TransmitRequest{Address: "1.2.3", Port: 5200, Width: 8, Height: 8}, &reply)
	assert.ErrorIs(t, err, proto.ErrInvalidAddressFormat)

	err = svc.Transmit(&TransmitRequest{Address: "1.2.3.4", Port: 5200, Width: 8, Height: 8, Image: []byte("nope")}, &reply)
	assert.Error(t, err)
}
