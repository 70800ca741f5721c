// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

const wsReadWaitTimeout = 15 * time.Second
const wsWriteWaitTimeout = 10 * time.Second
const wsPingPeriodTickTime = 10 * time.Second
const wsInitialPingTime = 1 * time.Second

const (
	MsgTypePing   = "ping"
	MsgTypePong   = "pong"
	MsgTypeExec   = "exec"
	MsgTypeResult = "result"
	MsgTypeError  = "error"
)

var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:   4 * 1024,
	WriteBufferSize:  32 * 1024,
	HandshakeTimeout: 1 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// wsResultMessage answers an "exec" message.
type wsResultMessage struct {
	Type string `json:"type"`
	ExecResult
}

func (s *Server) HandleWs(w http.ResponseWriter, r *http.Request) {
	err := s.HandleWsInternal(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func getMessageType(jmsg map[string]any) string {
	if str, ok := jmsg["type"].(string); ok {
		return str
	}
	return ""
}

func getStringFromMap(jmsg map[string]any, key string) string {
	if str, ok := jmsg[key].(string); ok {
		return str
	}
	return ""
}

// processMessage runs inline in the read loop so a client's lines execute
// in the order they were sent.
func (s *Server) processMessage(ctx context.Context, jmsg map[string]any, outputCh chan any) {
	msgType := getMessageType(jmsg)
	switch msgType {
	case "":
		return
	case MsgTypeExec:
		res := s.Exec(ctx, getStringFromMap(jmsg, "line"))
		outputCh <- wsResultMessage{Type: MsgTypeResult, ExecResult: res}
	default:
		outputCh <- map[string]any{"type": MsgTypeError, "error": fmt.Sprintf("unknown message type %q", msgType)}
	}
}

func (s *Server) ReadLoop(ctx context.Context, conn *websocket.Conn, outputCh chan any, closeCh chan any, connId string) {
	log := vzlog.Logger("websocket").WithField("conn", connId)
	readWait := wsReadWaitTimeout
	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(readWait))
	defer close(closeCh)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Debugf("read loop done: %v", err)
			break
		}
		jmsg := map[string]any{}
		err = json.Unmarshal(message, &jmsg)
		if err != nil {
			log.Warnf("error unmarshalling json: %v", err)
			break
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		msgType := getMessageType(jmsg)
		if msgType == MsgTypePong {
			continue
		}
		if msgType == MsgTypePing {
			outputCh <- map[string]any{"type": MsgTypePong, "stime": time.Now().UnixMilli()}
			continue
		}
		s.processMessage(ctx, jmsg, outputCh)
	}
}

func WritePing(conn *websocket.Conn) error {
	pingMessage := map[string]any{"type": MsgTypePing, "stime": time.Now().UnixMilli()}
	jsonVal, _ := json.Marshal(pingMessage)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout)) // no error
	return conn.WriteMessage(websocket.TextMessage, jsonVal)
}

func WriteLoop(conn *websocket.Conn, outputCh chan any, closeCh chan any, connId string) {
	log := vzlog.Logger("websocket").WithField("conn", connId)
	ticker := time.NewTicker(wsInitialPingTime)
	defer ticker.Stop()
	initialPing := true
	for {
		select {
		case msg := <-outputCh:
			barr, err := json.Marshal(msg)
			if err != nil {
				log.Errorf("cannot marshal websocket message: %v", err)
				break
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout))
			err = conn.WriteMessage(websocket.TextMessage, barr)
			if err != nil {
				conn.Close()
				log.Warnf("write loop error: %v", err)
				return
			}

		case <-ticker.C:
			err := WritePing(conn)
			if err != nil {
				log.Warnf("write loop error: %v", err)
				return
			}
			if initialPing {
				initialPing = false
				ticker.Reset(wsPingPeriodTickTime)
			}

		case <-closeCh:
			return
		}
	}
}

func (s *Server) closeConns() {
	s.conns.ForEach(func(connId string, conn *websocket.Conn) {
		conn.Close()
	})
}

func (s *Server) HandleWsInternal(w http.ResponseWriter, r *http.Request) error {
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("WebSocket Upgrade Failed: %v", err)
	}
	defer conn.Close()

	connId := uuid.New().String()
	outputCh := make(chan any, 100)
	closeCh := make(chan any)

	vzlog.Logger("websocket").Infof("new connection: connid:%s", connId)
	s.conns.Set(connId, conn)
	defer s.conns.Delete(connId)

	ctx := r.Context()

	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.ReadLoop(ctx, conn, outputCh, closeCh, connId)
	}()
	go func() {
		defer wg.Done()
		WriteLoop(conn, outputCh, closeCh, connId)
	}()
	wg.Wait()
	return nil
}
