// Package video provides the robot camera feed over WebRTC.
//
// The robot daemon exposes its camera through a GStreamer signalling server;
// Client negotiates a receive-only video session, depacketizes the H264 RTP
// stream, decodes frames to JPEG and publishes them into a LatestStore. The
// acquisition cadence is the robot's; consumers read the freshest frame via
// the Source interface and are never blocked by the stream.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/strobotta/minitrack/internal/log"
)

// producerName identifies the robot camera producer on the signalling server.
const producerName = "reachymini"

// Client connects to the robot's WebRTC video stream via GStreamer signalling.
type Client struct {
	signallingURL string

	ws      *websocket.Conn
	pc      *webrtc.PeerConnection
	wsMutex sync.Mutex

	myPeerID   string
	producerID string
	sessionID  string

	store   *LatestStore
	decoder *Decoder

	trackReady chan struct{}

	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewClient creates a WebRTC video client for the robot at the given IP.
// decodeInterval limits how often H264 data is decoded into frames.
func NewClient(robotIP string, decodeInterval time.Duration) *Client {
	return &Client{
		signallingURL: fmt.Sprintf("ws://%s:8443", robotIP),
		store:         NewLatestStore(),
		decoder:       NewDecoder(decodeInterval),
		trackReady:    make(chan struct{}, 1),
	}
}

// Source returns the frame source fed by this client. Valid before Connect;
// it simply stays empty until the first frame arrives.
func (c *Client) Source() Source {
	return c.store
}

// Connect establishes the WebRTC session. It blocks until the video track
// is live or ctx expires.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	ws, _, err := dialer.DialContext(ctx, c.signallingURL, nil)
	if err != nil {
		return fmt.Errorf("signalling connect: %w", err)
	}
	c.ws = ws

	if err := c.waitForWelcome(); err != nil {
		return fmt.Errorf("signalling welcome: %w", err)
	}
	log.Debug("signalling registered", "peer_id", c.myPeerID)

	if err := c.findProducer(); err != nil {
		return fmt.Errorf("find camera producer: %w", err)
	}

	if err := c.createPeerConnection(); err != nil {
		return fmt.Errorf("peer connection: %w", err)
	}

	if err := c.startSession(); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	go c.handleSignalling()

	select {
	case <-c.trackReady:
		log.Info("video connected", "producer", c.producerID)
	case <-time.After(15 * time.Second):
		return fmt.Errorf("timeout waiting for video track")
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

func (c *Client) waitForWelcome() error {
	c.ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := c.ws.ReadMessage()
	c.ws.SetReadDeadline(time.Time{})
	if err != nil {
		return err
	}

	var welcome struct {
		Type   string `json:"type"`
		PeerID string `json:"peerId"`
	}
	if err := json.Unmarshal(msg, &welcome); err != nil {
		return err
	}
	if welcome.Type != "welcome" {
		return fmt.Errorf("expected welcome, got %s", welcome.Type)
	}
	c.myPeerID = welcome.PeerID
	return nil
}

func (c *Client) findProducer() error {
	if err := c.writeJSON(map[string]string{"type": "list"}); err != nil {
		return err
	}

	c.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := c.ws.ReadMessage()
	c.ws.SetReadDeadline(time.Time{})
	if err != nil {
		return err
	}

	var listResp struct {
		Type      string `json:"type"`
		Producers []struct {
			ID   string            `json:"id"`
			Meta map[string]string `json:"meta"`
		} `json:"producers"`
	}
	if err := json.Unmarshal(msg, &listResp); err != nil {
		return err
	}

	for _, p := range listResp.Producers {
		if name, ok := p.Meta["name"]; ok && name == producerName {
			c.producerID = p.ID
			return nil
		}
	}
	return fmt.Errorf("camera producer not found among %d producers", len(listResp.Producers))
}

func (c *Client) createPeerConnection() error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err
	}
	c.pc = pc

	// Receive-only video
	if _, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		return err
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Debug("track received", "kind", track.Kind().String(), "codec", track.Codec().MimeType)
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			go c.consumeVideoTrack(track)
		}
	})

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate != nil {
			c.sendICECandidate(candidate)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Debug("webrtc state change", "state", state.String())
	})

	return nil
}

func (c *Client) startSession() error {
	return c.writeJSON(map[string]string{
		"type":   "startSession",
		"peerId": c.producerID,
	})
}

func (c *Client) handleSignalling() {
	for !c.isClosed() {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				log.Warn("signalling read failed", "error", err)
			}
			return
		}

		var baseMsg struct {
			Type      string `json:"type"`
			SessionID string `json:"sessionId"`
		}
		json.Unmarshal(msg, &baseMsg)

		switch baseMsg.Type {
		case "sessionStarted":
			c.sessionID = baseMsg.SessionID
		case "peer":
			c.handlePeerMessage(msg)
		case "endSession":
			return
		}
	}
}

func (c *Client) handlePeerMessage(msg []byte) {
	var peerMsg struct {
		SDP *struct {
			Type string `json:"type"`
			SDP  string `json:"sdp"`
		} `json:"sdp"`
		ICE *struct {
			Candidate     string  `json:"candidate"`
			SDPMid        *string `json:"sdpMid"`
			SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
		} `json:"ice"`
	}
	if err := json.Unmarshal(msg, &peerMsg); err != nil {
		log.Warn("bad peer message", "error", err)
		return
	}

	if peerMsg.SDP != nil && peerMsg.SDP.Type == "offer" {
		offer := webrtc.SessionDescription{
			Type: webrtc.SDPTypeOffer,
			SDP:  peerMsg.SDP.SDP,
		}
		if err := c.pc.SetRemoteDescription(offer); err != nil {
			log.Warn("set remote description failed", "error", err)
			return
		}

		answer, err := c.pc.CreateAnswer(nil)
		if err != nil {
			log.Warn("create answer failed", "error", err)
			return
		}
		if err := c.pc.SetLocalDescription(answer); err != nil {
			log.Warn("set local description failed", "error", err)
			return
		}
		c.sendSDP(answer)
	}

	if peerMsg.ICE != nil {
		c.pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     peerMsg.ICE.Candidate,
			SDPMid:        peerMsg.ICE.SDPMid,
			SDPMLineIndex: peerMsg.ICE.SDPMLineIndex,
		})
	}
}

func (c *Client) sendSDP(sdp webrtc.SessionDescription) {
	c.writeJSON(map[string]interface{}{
		"type":      "peer",
		"sessionId": c.sessionID,
		"sdp": map[string]string{
			"type": sdp.Type.String(),
			"sdp":  sdp.SDP,
		},
	})
}

func (c *Client) sendICECandidate(candidate *webrtc.ICECandidate) {
	if c.sessionID == "" {
		return
	}
	init := candidate.ToJSON()
	c.writeJSON(map[string]interface{}{
		"type":      "peer",
		"sessionId": c.sessionID,
		"ice": map[string]interface{}{
			"candidate":     init.Candidate,
			"sdpMid":        init.SDPMid,
			"sdpMLineIndex": init.SDPMLineIndex,
		},
	})
}

func (c *Client) writeJSON(v interface{}) error {
	c.wsMutex.Lock()
	defer c.wsMutex.Unlock()
	return c.ws.WriteJSON(v)
}

// consumeVideoTrack reads RTP packets, accumulates H264 NAL units and
// publishes decoded frames into the store.
func (c *Client) consumeVideoTrack(track *webrtc.TrackRemote) {
	select {
	case c.trackReady <- struct{}{}:
	default:
	}

	var nalBuffer bytes.Buffer
	lastFlush := time.Now()

	for !c.isClosed() {
		rtpPacket, _, err := track.ReadRTP()
		if err != nil {
			return
		}

		c.appendPayload(&nalBuffer, rtpPacket)

		// Flush to the decoder periodically; the decoder applies its own
		// rate limit on top of this.
		if time.Since(lastFlush) > 100*time.Millisecond {
			c.publishFrame(nalBuffer.Bytes())
			nalBuffer.Reset()
			lastFlush = time.Now()
		}
	}
}

// appendPayload accumulates the H264 payload of one RTP packet.
func (c *Client) appendPayload(buf *bytes.Buffer, pkt *rtp.Packet) {
	buf.Write(pkt.Payload)
}

func (c *Client) publishFrame(nalData []byte) {
	jpegData, err := c.decoder.DecodeNAL(nalData)
	if err != nil {
		log.Debug("frame decode failed", "error", err)
		return
	}
	if jpegData == nil {
		return // rate limited
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpegData))
	if err != nil {
		log.Debug("frame header decode failed", "error", err)
		return
	}

	c.store.Publish(Frame{
		Data:      jpegData,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Timestamp: time.Now(),
	})
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears down the WebRTC session.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if c.pc != nil {
		c.pc.Close()
	}
	if c.ws != nil {
		return c.ws.Close()
	}
	return nil
}
