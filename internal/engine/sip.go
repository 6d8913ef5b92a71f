package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"
	"github.com/google/uuid"

	"dialpad/internal/debug"
)

const (
	allowedMethods = "INVITE, ACK, CANCEL, BYE, REFER, NOTIFY, OPTIONS"
	userAgentName  = "dialpad"
	cancelTimeout  = 2 * time.Second
)

var errNoDialog = errors.New("no established dialog")

// SIPConfig identifies the local party.
type SIPConfig struct {
	Username    string
	DisplayName string
	Domain      string
	Hostname    string
	Port        int
	Transport   string
}

// SIPSignaler implements Signaler with a sipgo client. It keeps the INVITE
// and its 2xx so that in-dialog requests (BYE, REFER) can be built from them.
type SIPSignaler struct {
	cfg    SIPConfig
	ua     *sipgo.UserAgent
	client *sipgo.Client
	log    debug.Logger

	mu     sync.Mutex
	cseq   uint32
	invite *sip.Request
	answer *sip.Response
}

// NewSIPSignaler creates the user agent and client. No socket is bound until
// the first request is sent.
func NewSIPSignaler(cfg SIPConfig) (*SIPSignaler, error) {
	ua, err := sipgo.NewUA(
		sipgo.WithUserAgentHostname(cfg.Hostname),
	)
	if err != nil {
		return nil, fmt.Errorf("create user agent: %w", err)
	}
	client, err := sipgo.NewClient(ua,
		sipgo.WithClientHostname(cfg.Hostname),
	)
	if err != nil {
		_ = ua.Close()
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &SIPSignaler{
		cfg:    cfg,
		ua:     ua,
		client: client,
		log:    debug.For("SIP"),
	}, nil
}

// Invite sends an INVITE to target and waits for a final response.
func (s *SIPSignaler) Invite(ctx context.Context, target string, progress func(Progress)) error {
	req, err := s.buildInvite(target)
	if err != nil {
		return err
	}

	s.log.With("target", target).Logf("sending INVITE")
	tx, err := s.client.TransactionRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("send INVITE: %w", err)
	}
	defer tx.Terminate()

	for {
		select {
		case <-ctx.Done():
			s.sendCancel(req)
			return ctx.Err()
		case <-tx.Done():
			if err := tx.Err(); err != nil {
				return fmt.Errorf("INVITE transaction: %w", err)
			}
			return errors.New("INVITE transaction ended without a final response")
		case res, ok := <-tx.Responses():
			if !ok {
				return errors.New("INVITE transaction closed")
			}
			if res.IsProvisional() {
				if res.StatusCode == 180 || res.StatusCode == 183 {
					notify(progress, ProgressRinging)
				}
				continue
			}
			if !res.IsSuccess() {
				return &RejectedError{StatusCode: int(res.StatusCode), Reason: res.Reason}
			}
			if err := s.client.WriteRequest(newAck(req, res)); err != nil {
				return fmt.Errorf("send ACK: %w", err)
			}
			s.mu.Lock()
			s.invite, s.answer = req, res
			s.mu.Unlock()
			notify(progress, ProgressAnswered)
			return nil
		}
	}
}

// Refer performs a blind transfer of the answered call to target.
func (s *SIPSignaler) Refer(ctx context.Context, target string) error {
	var uri sip.Uri
	if err := sip.ParseUri(target, &uri); err != nil {
		return fmt.Errorf("parse transfer target: %w", err)
	}

	req, err := s.inDialog(sip.REFER)
	if err != nil {
		return err
	}
	req.AppendHeader(sip.NewHeader("Refer-To", fmt.Sprintf("<%s>", uri.String())))
	local := s.localURI()
	req.AppendHeader(sip.NewHeader("Referred-By", fmt.Sprintf("<%s>", local.String())))

	res, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("send REFER: %w", err)
	}
	if !res.IsSuccess() {
		return &RejectedError{StatusCode: int(res.StatusCode), Reason: res.Reason}
	}
	return nil
}

// Bye hangs up the answered call and forgets the dialog.
func (s *SIPSignaler) Bye(ctx context.Context) error {
	req, err := s.inDialog(sip.BYE)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.invite, s.answer = nil, nil
	s.mu.Unlock()

	res, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("send BYE: %w", err)
	}
	if !res.IsSuccess() {
		s.log.Warnf("BYE answered with %d %s", res.StatusCode, res.Reason)
	}
	return nil
}

// Close releases the client and user agent.
func (s *SIPSignaler) Close() error {
	cerr := s.client.Close()
	uerr := s.ua.Close()
	return errors.Join(cerr, uerr)
}

func (s *SIPSignaler) localURI() sip.Uri {
	host := s.cfg.Domain
	if host == "" {
		host = s.cfg.Hostname
	}
	return sip.Uri{Scheme: "sip", User: s.cfg.Username, Host: host}
}

func (s *SIPSignaler) contactURI() sip.Uri {
	return sip.Uri{Scheme: "sip", User: s.cfg.Username, Host: s.cfg.Hostname, Port: s.cfg.Port}
}

func (s *SIPSignaler) nextCSeq() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cseq++
	return s.cseq
}

func (s *SIPSignaler) buildInvite(target string) (*sip.Request, error) {
	var uri sip.Uri
	if err := sip.ParseUri(target, &uri); err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}
	if uri.Host == "" {
		return nil, fmt.Errorf("target %q has no host", target)
	}

	req := sip.NewRequest(sip.INVITE, uri)
	req.AppendHeader(&sip.FromHeader{
		DisplayName: s.cfg.DisplayName,
		Address:     s.localURI(),
		Params:      sip.NewParams().Add("tag", newTag()),
	})
	req.AppendHeader(&sip.ToHeader{
		Address: uri,
		Params:  sip.NewParams(),
	})
	req.AppendHeader(&sip.ContactHeader{
		Address: s.contactURI(),
		Params:  sip.NewParams(),
	})
	callID := sip.CallIDHeader(uuid.NewString())
	req.AppendHeader(&callID)
	req.AppendHeader(&sip.CSeqHeader{SeqNo: s.nextCSeq(), MethodName: sip.INVITE})
	maxForwards := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxForwards)
	req.AppendHeader(sip.NewHeader("Allow", allowedMethods))
	req.AppendHeader(sip.NewHeader("User-Agent", userAgentName))

	if t := strings.ToUpper(strings.TrimSpace(s.cfg.Transport)); t != "" && t != "UDP" {
		req.SetTransport(t)
	}
	return req, nil
}

// inDialog builds a request inside the established dialog: From from the
// INVITE, To (with the remote tag) from the 2xx, next local CSeq.
func (s *SIPSignaler) inDialog(method sip.RequestMethod) (*sip.Request, error) {
	s.mu.Lock()
	invite, answer := s.invite, s.answer
	s.mu.Unlock()
	if invite == nil || answer == nil {
		return nil, errNoDialog
	}

	target := invite.Recipient
	if contact := answer.Contact(); contact != nil {
		target = contact.Address
	}

	req := sip.NewRequest(method, target)
	req.AppendHeader(sip.HeaderClone(invite.From()))
	if to := answer.To(); to != nil {
		req.AppendHeader(sip.HeaderClone(to))
	}
	req.AppendHeader(sip.HeaderClone(invite.CallID()))
	req.AppendHeader(&sip.CSeqHeader{SeqNo: s.nextCSeq(), MethodName: method})
	maxForwards := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxForwards)
	req.AppendHeader(sip.NewHeader("User-Agent", userAgentName))
	req.SetTransport(invite.Transport())
	return req, nil
}

// newAck builds the ACK for a 2xx to invite. It is a new transaction sent to
// the remote Contact; the client adds a fresh Via when writing it.
func newAck(invite *sip.Request, answer *sip.Response) *sip.Request {
	target := invite.Recipient
	if contact := answer.Contact(); contact != nil {
		target = contact.Address
	}

	req := sip.NewRequest(sip.ACK, target)
	req.AppendHeader(sip.HeaderClone(invite.From()))
	if to := answer.To(); to != nil {
		req.AppendHeader(sip.HeaderClone(to))
	}
	req.AppendHeader(sip.HeaderClone(invite.CallID()))
	if cseq := invite.CSeq(); cseq != nil {
		req.AppendHeader(&sip.CSeqHeader{SeqNo: cseq.SeqNo, MethodName: sip.ACK})
	}
	maxForwards := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxForwards)
	if contact := invite.Contact(); contact != nil {
		req.AppendHeader(sip.HeaderClone(contact))
	}
	req.SetTransport(invite.Transport())
	return req
}

// sendCancel abandons a pending INVITE. Best effort: failures are logged.
func (s *SIPSignaler) sendCancel(invite *sip.Request) {
	req := sip.NewRequest(sip.CANCEL, invite.Recipient)
	if via := invite.Via(); via != nil {
		req.AppendHeader(via.Clone())
	}
	req.AppendHeader(sip.HeaderClone(invite.From()))
	req.AppendHeader(sip.HeaderClone(invite.To()))
	req.AppendHeader(sip.HeaderClone(invite.CallID()))
	if cseq := invite.CSeq(); cseq != nil {
		req.AppendHeader(&sip.CSeqHeader{SeqNo: cseq.SeqNo, MethodName: sip.CANCEL})
	}
	maxForwards := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxForwards)
	req.SetTransport(invite.Transport())

	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if _, err := s.client.Do(ctx, req); err != nil {
		s.log.Warnf("CANCEL failed: %v", err)
	}
}

func notify(progress func(Progress), p Progress) {
	if progress != nil {
		progress(p)
	}
}

func newTag() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
