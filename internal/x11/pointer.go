// Package x11 reads the mouse pointer position from the X server (or
// XWayland) with a QueryPointer request on the root window.
package x11

import (
	"context"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/jmylchreest/imecue/internal/model"
)

// PointerProvider reports the pointer position in root window coordinates.
type PointerProvider struct {
	mu   sync.Mutex
	conn *xgb.Conn
	root xproto.Window
}

// NewPointerProvider connects to the display named by $DISPLAY.
func NewPointerProvider() (*PointerProvider, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &PointerProvider{conn: conn, root: screen.Root}, nil
}

// CurrentPosition returns the pointer position, or an absent sample when
// the pointer is on another screen.
func (p *PointerProvider) CurrentPosition(ctx context.Context) (model.PositionSample, error) {
	if err := ctx.Err(); err != nil {
		return model.Absent(), err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return model.Absent(), fmt.Errorf("pointer provider closed")
	}

	reply, err := xproto.QueryPointer(p.conn, p.root).Reply()
	if err != nil {
		return model.Absent(), fmt.Errorf("failed to query pointer: %w", err)
	}
	return sampleFromReply(reply), nil
}

func sampleFromReply(reply *xproto.QueryPointerReply) model.PositionSample {
	if reply == nil || !reply.SameScreen {
		return model.Absent()
	}
	return model.At(int(reply.RootX), int(reply.RootY))
}

// Close closes the X connection.
func (p *PointerProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	return nil
}
