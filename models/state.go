package models

import "fmt"

// ConnectivityState is the classified network state published by the
// connectivity monitor.
type ConnectivityState int

const (
	Offline ConnectivityState = iota
	Connecting
	OnlineDegraded
	Online
)

func (s ConnectivityState) String() string {
	switch s {
	case Offline:
		return "offline"
	case Connecting:
		return "connecting"
	case OnlineDegraded:
		return "online-degraded"
	case Online:
		return "online"
	}
	return fmt.Sprintf("connectivity(%d)", int(s))
}

// Usable reports whether the remote can be reached in this state.
func (s ConnectivityState) Usable() bool {
	return s == Online || s == OnlineDegraded
}

// SyncState is the state of the sync coordinator.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncDraining
	SyncPulling
	SyncReconciling
	SyncDegraded
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncDraining:
		return "draining"
	case SyncPulling:
		return "pulling"
	case SyncReconciling:
		return "reconciling"
	case SyncDegraded:
		return "degraded"
	}
	return fmt.Sprintf("sync(%d)", int(s))
}

// ChannelState is the state of the live push channel.
type ChannelState int

const (
	ChannelDisconnected ChannelState = iota
	ChannelConnecting
	ChannelConnected
)

func (s ChannelState) String() string {
	switch s {
	case ChannelDisconnected:
		return "disconnected"
	case ChannelConnecting:
		return "connecting"
	case ChannelConnected:
		return "connected"
	}
	return fmt.Sprintf("channel(%d)", int(s))
}
