package types

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// IdentityKind discriminates the two on-chain identity variants.
type IdentityKind uint8

const (
	IdentityAddress IdentityKind = iota
	IdentityContract
)

// Identity is either a wallet Address or a ContractId. Wire form is a
// single-key object: {"Address": "0x..."} or {"ContractId": "0x..."}.
type Identity struct {
	Kind  IdentityKind
	Value string
}

func AddressIdentity(addr string) Identity {
	return Identity{Kind: IdentityAddress, Value: addr}
}

func ContractIdentity(id string) Identity {
	return Identity{Kind: IdentityContract, Value: id}
}

func (i Identity) String() string { return i.Value }

func (i Identity) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case IdentityAddress:
		return json.Marshal(map[string]string{"Address": i.Value})
	case IdentityContract:
		return json.Marshal(map[string]string{"ContractId": i.Value})
	default:
		return nil, fmt.Errorf("unknown identity kind %d", i.Kind)
	}
}

func (i *Identity) UnmarshalJSON(data []byte) error {
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if v, ok := obj["Address"]; ok {
		*i = AddressIdentity(v)
		return nil
	}
	if v, ok := obj["ContractId"]; ok {
		*i = ContractIdentity(v)
		return nil
	}
	return fmt.Errorf("identity object has neither Address nor ContractId: %s", data)
}

// Signature is the wire form of a compact signature:
// {"Secp256k1": "0x<128 hex chars>"}.
type Signature struct {
	Secp256k1 string `json:"Secp256k1"`
}
