package oscquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ossia/ossia-sc/pkg/connection"
	"github.com/ossia/ossia-sc/pkg/discovery"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

type mockAdvertiser struct {
	mock.Mock
}

func (m *mockAdvertiser) Advertise(ctx context.Context, svc discovery.Service) error {
	return m.Called(svc.Type).Error(0)
}

func (m *mockAdvertiser) Stop(instance, serviceType string) error {
	return m.Called(instance, serviceType).Error(0)
}

func (m *mockAdvertiser) StopAll() { m.Called() }

func testServerConfig() ServerConfig {
	cfg := DefaultServerConfig()
	cfg.OSCPort = 0
	cfg.WSPort = 0
	cfg.BindHost = "127.0.0.1"
	return cfg
}

func newServerDevice(t *testing.T, cfg ServerConfig) (*Server, *model.Device) {
	t.Helper()
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	d := model.NewDevice("remote", srv)
	t.Cleanup(func() { d.Close() })
	return srv, d
}

func param(t *testing.T, d *model.Device, path string, typ value.Type) *model.Parameter {
	t.Helper()
	n, err := model.FindOrCreateNode(d.Root(), path)
	require.NoError(t, err)
	p, err := n.CreateParameter(typ)
	require.NoError(t, err)
	return p
}

func TestTypeTag(t *testing.T) {
	tests := []struct {
		typ  value.Type
		v    value.Value
		want string
	}{
		{value.TypeImpulse, value.Impulse(), "I"},
		{value.TypeBool, value.Bool(true), "T"},
		{value.TypeBool, value.Bool(false), "F"},
		{value.TypeChar, value.Char('a'), "c"},
		{value.TypeInt, value.Int(1), "i"},
		{value.TypeFloat, value.Float(1), "f"},
		{value.TypeString, value.String("x"), "s"},
		{value.TypeVec3f, value.Vec3(value.Vec3f{}), "fff"},
		{value.TypeList, value.List(value.Int(1), value.String("a")), "[is]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeTag(tt.typ, tt.v))
			if tt.typ != value.TypeList {
				assert.Equal(t, tt.typ, ParseTypeTag(tt.want))
			}
		})
	}
	assert.Equal(t, value.TypeList, ParseTypeTag("[is]"))
}

func TestBuildNode(t *testing.T) {
	d := model.NewDevice("dev", nil)
	gain := param(t, d, "/synth/gain", value.TypeFloat)
	gain.SetDomain(value.MakeDomain(value.Float(0), value.Float(1)))
	gain.SetBoundingMode(value.BoundClip)
	require.NoError(t, gain.SetValueQuiet(value.Float(0.5)))
	gain.Node().SetDescription("output level")
	gain.Node().SetTags([]string{"audio"})

	hidden, err := model.FindOrCreateNode(d.Root(), "/synth/secret")
	require.NoError(t, err)
	hidden.SetHidden(true)

	ns := BuildNode(d.Root())
	assert.Equal(t, "/", ns[AttrFullPath])

	synth := ns[AttrContents].(map[string]any)["synth"].(map[string]any)
	contents := synth[AttrContents].(map[string]any)
	assert.NotContains(t, contents, "secret")

	g := contents["gain"].(map[string]any)
	assert.Equal(t, "/synth/gain", g[AttrFullPath])
	assert.Equal(t, "f", g[AttrType])
	assert.Equal(t, []any{float32(0.5)}, g[AttrValue])
	assert.Equal(t, "both", g[AttrClipMode])
	assert.Equal(t, accessBi, g[AttrAccess])
	assert.Equal(t, "output level", g[AttrDescription])
	assert.Equal(t, []string{"audio"}, g[AttrTags])
	assert.Equal(t, []Range{{Min: float32(0), Max: float32(1)}}, g[AttrRange])
	assert.NotContains(t, g, AttrUnit)
}

func TestDecodeDomain(t *testing.T) {
	raw := []any{
		map[string]any{"MIN": json.Number("0"), "MAX": json.Number("1")},
		map[string]any{"MIN": json.Number("0"), "MAX": json.Number("2")},
	}
	d := decodeDomain(value.TypeVec2f, raw)
	assert.True(t, d.Min().Equal(value.Vec2(value.Vec2f{0, 0})))
	assert.True(t, d.Max().Equal(value.Vec2(value.Vec2f{1, 2})))

	vals := []any{map[string]any{"VALS": []any{"a", "b"}}}
	d = decodeDomain(value.TypeString, vals)
	assert.Len(t, d.Values(), 2)
	assert.False(t, d.Min().Valid())
}

func TestServeHTTP(t *testing.T) {
	srv, d := newServerDevice(t, testServerConfig())
	gain := param(t, d, "/gain", value.TypeFloat)
	require.NoError(t, gain.SetValueQuiet(value.Float(2)))

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	t.Run("Namespace", func(t *testing.T) {
		rec := get("/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var ns map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ns))
		assert.Contains(t, ns[AttrContents], "gain")
	})

	t.Run("Attribute", func(t *testing.T) {
		for _, q := range []string{"VALUE", "value"} {
			rec := get("/gain?" + q)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"VALUE":[2]}`, rec.Body.String())
		}
	})

	t.Run("AbsentAttribute", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, get("/gain?UNIT").Code)
	})

	t.Run("UnknownNode", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/missing").Code)
	})

	t.Run("HostInfo", func(t *testing.T) {
		rec := get("/?HOST_INFO")
		require.Equal(t, http.StatusOK, rec.Code)

		var info HostInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.Equal(t, "remote", info.Name)
		assert.Equal(t, srv.OSCPort(), info.OSCPort)
		assert.Equal(t, "UDP", info.OSCTransport)
		assert.True(t, info.Extensions[CommandListen])
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gain", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServerAdvertises(t *testing.T) {
	adv := &mockAdvertiser{}
	adv.On("Advertise", discovery.ServiceTypeOSCQuery).Return(nil).Once()
	adv.On("Advertise", discovery.ServiceTypeOSC).Return(nil).Once()
	adv.On("Stop", "remote", discovery.ServiceTypeOSCQuery).Return(nil).Once()
	adv.On("Stop", "remote", discovery.ServiceTypeOSC).Return(nil).Once()

	cfg := testServerConfig()
	cfg.Advertiser = adv
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	d := model.NewDevice("remote", srv)

	require.NoError(t, d.Close())
	adv.AssertExpectations(t)
}

func TestParseHost(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ws://127.0.0.1:5678", want: "http://127.0.0.1:5678"},
		{in: "http://host:80/ignored?x", want: "http://host:80"},
		{in: "host:5678", want: "http://host:5678"},
		{in: "", wantErr: true},
		{in: "ftp://host", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := parseHost(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadHost)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestMirror(t *testing.T) {
	srv, remote := newServerDevice(t, testServerConfig())

	gain := param(t, remote, "/synth/gain", value.TypeFloat)
	gain.SetDomain(value.MakeDomain(value.Float(0), value.Float(10)))
	require.NoError(t, gain.SetValueQuiet(value.Float(3)))
	meter := param(t, remote, "/synth/meter", value.TypeFloat)
	meter.SetAccess(value.AccessGet)
	name := param(t, remote, "/synth/name", value.TypeString)
	require.NoError(t, name.SetValueQuiet(value.String("lead")))
	name.Node().SetDescription("patch name")

	cfg := DefaultMirrorConfig(fmt.Sprintf("ws://127.0.0.1:%d", srv.WSPort()))
	m, err := NewMirror(cfg)
	require.NoError(t, err)
	local := model.NewDevice("mirror", m)
	defer local.Close()

	require.NoError(t, m.Update(local.Root()))
	require.NotNil(t, m.HostInfo())
	assert.Equal(t, "remote", m.HostInfo().Name)
	assert.Equal(t, connection.StateConnected, m.State())

	t.Run("Tree", func(t *testing.T) {
		n := model.FindNode(local.Root(), "/synth/gain")
		require.NotNil(t, n)
		p := n.Parameter()
		require.NotNil(t, p)
		assert.Equal(t, value.TypeFloat, p.Type())
		assert.True(t, p.Value().Equal(value.Float(3)))
		assert.True(t, p.Domain().Max().Equal(value.Float(10)))

		np := model.FindNode(local.Root(), "/synth/name").Parameter()
		assert.True(t, np.Value().Equal(value.String("lead")))
		desc, ok := np.Node().Description()
		assert.True(t, ok)
		assert.Equal(t, "patch name", desc)

		mp := model.FindNode(local.Root(), "/synth/meter").Parameter()
		assert.Equal(t, value.AccessGet, mp.Access())
	})

	t.Run("Listen", func(t *testing.T) {
		mp := model.FindNode(local.Root(), "/synth/meter").Parameter()
		require.NoError(t, m.Observe(mp, true))

		assert.Eventually(t, func() bool {
			_ = meter.PushValue(value.Float(0.7))
			return mp.Value().Equal(value.Float(0.7))
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("Push", func(t *testing.T) {
		p := model.FindNode(local.Root(), "/synth/gain").Parameter()
		require.NoError(t, p.PushValue(value.Float(5)))

		assert.Eventually(t, func() bool {
			return gain.Value().Equal(value.Float(5))
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("Pull", func(t *testing.T) {
		require.NoError(t, name.SetValueQuiet(value.String("bass")))
		p := model.FindNode(local.Root(), "/synth/name").Parameter()
		require.NoError(t, m.Pull(p))
		assert.True(t, p.Value().Equal(value.String("bass")))
	})

	t.Run("UnknownSubtree", func(t *testing.T) {
		n, err := model.FindOrCreateNode(local.Root(), "/nothing")
		require.NoError(t, err)
		assert.Error(t, m.Update(n))
	})
}

func TestMirrorUnreachable(t *testing.T) {
	cfg := DefaultMirrorConfig("127.0.0.1:1")
	cfg.HTTPClient = &http.Client{Timeout: 500 * time.Millisecond}
	m, err := NewMirror(cfg)
	require.NoError(t, err)
	d := model.NewDevice("mirror", m)
	defer d.Close()

	assert.Error(t, m.Update(d.Root()))
	assert.Equal(t, connection.StateIdle, m.State())

	p := param(t, d, "/x", value.TypeFloat)
	assert.ErrorIs(t, m.Push(p), connection.ErrNotConnected)
}
