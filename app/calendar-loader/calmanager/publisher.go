package calmanager

import (
	"encoding/json"
	"fmt"

	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
	"github.com/nats-io/nats.go"
)

// ReloadPublisher announces newly saved DataSets
type ReloadPublisher interface {
	PublishReload(ds *marketcal.DataSet) error
}

// NatsReloadPublisher sends marketcal.ReloadNotice over nats
type NatsReloadPublisher struct {
	natsConn      *nats.Conn
	reloadSubject string
}

// NewNatsReloadPublisher creates a NatsReloadPublisher publishing on reloadSubject
func NewNatsReloadPublisher(natsConn *nats.Conn, reloadSubject string) *NatsReloadPublisher {
	return &NatsReloadPublisher{
		natsConn:      natsConn,
		reloadSubject: reloadSubject,
	}
}

func (n *NatsReloadPublisher) PublishReload(ds *marketcal.DataSet) error {
	notice, err := marketcal.MakeReloadNotice(ds)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("error marshaling reload notice to json: error:%v", err)
	}
	return n.natsConn.Publish(n.reloadSubject, jsonData)
}

// noopReloadPublisher is used when no nats server is configured
type noopReloadPublisher struct{}

func (noopReloadPublisher) PublishReload(_ *marketcal.DataSet) error {
	return nil
}

// NoopReloadPublisher returns a ReloadPublisher that announces nothing
func NoopReloadPublisher() ReloadPublisher {
	return noopReloadPublisher{}
}
