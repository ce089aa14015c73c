// Package chain provides the network side of the sandbox: fetching recent
// blockhashes, submitting signed transactions and polling for confirmation.
package chain

import (
	"context"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Cluster identifies a public network.
type Cluster string

// Known clusters.
const (
	MainnetBeta Cluster = "mainnet-beta"
	Devnet      Cluster = "devnet"
	Testnet     Cluster = "testnet"
	Localnet    Cluster = "localnet"
)

// CoinType is the BIP44 coin type used for account derivation.
const CoinType uint32 = 501

// Decimals is the number of decimal places between lamports and SOL.
const Decimals = 9

// RPCURL returns the public RPC endpoint for the cluster.
func (c Cluster) RPCURL() string {
	switch c {
	case MainnetBeta:
		return rpc.MainNetBeta_RPC
	case Devnet:
		return rpc.DevNet_RPC
	case Testnet:
		return rpc.TestNet_RPC
	case Localnet:
		return rpc.LocalNet_RPC
	default:
		return ""
	}
}

// String returns the cluster name.
func (c Cluster) String() string {
	return string(c)
}

// IsValid returns true if the cluster is known.
func (c Cluster) IsValid() bool {
	return c.RPCURL() != ""
}

// ParseCluster parses a cluster name. "mainnet" is accepted for mainnet-beta.
func ParseCluster(s string) (Cluster, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "mainnet" {
		return MainnetBeta, true
	}
	c := Cluster(s)
	return c, c.IsValid()
}

// AllClusters returns every known cluster.
func AllClusters() []Cluster {
	return []Cluster{MainnetBeta, Devnet, Testnet, Localnet}
}

// ResolveRPC maps a cluster name to its endpoint URL.
// Anything that is not a cluster name is returned unchanged.
func ResolveRPC(nameOrURL string) string {
	if c, ok := ParseCluster(nameOrURL); ok {
		return c.RPCURL()
	}
	return nameOrURL
}

// BlockhashFetcher fetches the freshness token embedded in new transactions.
type BlockhashFetcher interface {
	// LatestBlockhash returns the most recent blockhash.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// Submitter submits signed, serialized transactions.
type Submitter interface {
	// SendRawTransaction submits wire-encoded transaction bytes and returns
	// the transaction signature reported by the node.
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
}

// Confirmer waits for a submitted transaction to be confirmed.
type Confirmer interface {
	// ConfirmTransaction blocks until the signature reaches confirmed
	// commitment, the transaction fails, or the wait times out.
	ConfirmTransaction(ctx context.Context, sig solana.Signature) error
}

// Endpoint combines everything the sandbox needs from the network.
type Endpoint interface {
	BlockhashFetcher
	Submitter
	Confirmer
}
