package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func TestFuelWalletAddress(t *testing.T) {
	w, err := GenerateWallet()
	if err != nil {
		t.Fatalf("GenerateWallet: %v", err)
	}
	pub := ethcrypto.FromECDSAPub(&w.priv.PublicKey)
	want := sha256.Sum256(pub[1:65])
	if w.B256() != want {
		t.Fatalf("fuel address mismatch: got %x want %x", w.B256(), want)
	}
}

func TestEVMWalletAddress(t *testing.T) {
	w, err := GenerateEVMWallet()
	if err != nil {
		t.Fatalf("GenerateEVMWallet: %v", err)
	}
	pub := ethcrypto.FromECDSAPub(&w.priv.PublicKey)
	hash := ethcrypto.Keccak256(pub[1:65])

	var evm [20]byte
	copy(evm[:], hash[12:32])
	if w.EVMAddress() != evm {
		t.Fatalf("evm address mismatch: got %x want %x", w.EVMAddress(), evm)
	}

	b256 := w.B256()
	if !bytes.Equal(b256[:12], make([]byte, 12)) {
		t.Fatalf("native identity not zero-padded: %x", b256)
	}
	if !bytes.Equal(b256[12:], evm[:]) {
		t.Fatalf("native identity tail mismatch: got %x want %x", b256[12:], evm)
	}
}

func TestLoadWalletRoundTrip(t *testing.T) {
	w, err := GenerateWallet()
	if err != nil {
		t.Fatalf("GenerateWallet: %v", err)
	}
	for _, key := range []string{w.PrivateKeyHex(), "0x" + w.PrivateKeyHex()} {
		loaded, err := LoadWallet(key)
		if err != nil {
			t.Fatalf("LoadWallet(%q): %v", key, err)
		}
		if loaded.B256() != w.B256() {
			t.Fatalf("reloaded wallet has different address")
		}
	}
}

func TestLoadWalletRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "0x", "zz", "0xdeadbeef"} {
		if _, err := LoadWallet(key); err == nil {
			t.Errorf("LoadWallet(%q): expected error", key)
		}
	}
}

func TestCompactSignRoundTrip(t *testing.T) {
	w, err := GenerateWallet()
	if err != nil {
		t.Fatalf("GenerateWallet: %v", err)
	}
	digest := sha256.Sum256([]byte("compact round trip"))

	compact, err := CompactSign(w.priv, digest)
	if err != nil {
		t.Fatalf("CompactSign: %v", err)
	}

	r, s, recID := UnpackCompact(compact)
	if recID > 1 {
		t.Fatalf("recovery id out of range: %d", recID)
	}
	if s[0]&0x80 != 0 {
		t.Fatalf("unpacked s still carries recovery bit")
	}
	if PackCompact(r, s, recID) != compact {
		t.Fatalf("pack(unpack(sig)) != sig")
	}

	// Recover the public key from the standard 65-byte layout and check
	// it matches the signer.
	full := make([]byte, 65)
	copy(full[0:32], r[:])
	copy(full[32:64], s[:])
	full[64] = recID
	pub, err := ethcrypto.Ecrecover(digest[:], full)
	if err != nil {
		t.Fatalf("Ecrecover: %v", err)
	}
	if want := sha256.Sum256(pub[1:65]); want != w.B256() {
		t.Fatalf("recovered key does not match signer")
	}
}

func TestPersonalSignDigests(t *testing.T) {
	msg := []byte("hello o2")
	lenASCII := strconv.Itoa(len(msg))

	fuel := sha256.Sum256(append([]byte("\x19Fuel Signed Message:\n"+lenASCII), msg...))
	if got := FuelDigest(msg); got != fuel {
		t.Fatalf("fuel digest mismatch: got %x want %x", got, fuel)
	}

	evmPre := append([]byte("\x19Ethereum Signed Message:\n"+lenASCII), msg...)
	var evm [32]byte
	copy(evm[:], ethcrypto.Keccak256(evmPre))
	if got := EVMDigest(msg); got != evm {
		t.Fatalf("evm digest mismatch: got %x want %x", got, evm)
	}

	if got, want := RawDigest(msg), sha256.Sum256(msg); got != want {
		t.Fatalf("raw digest mismatch: got %x want %x", got, want)
	}
}

func TestPersonalSignRecovers(t *testing.T) {
	w, err := GenerateWallet()
	if err != nil {
		t.Fatalf("GenerateWallet: %v", err)
	}
	msg := []byte("authorize session")
	sig, err := w.PersonalSign(msg)
	if err != nil {
		t.Fatalf("PersonalSign: %v", err)
	}

	digest := FuelDigest(msg)
	r, s, recID := UnpackCompact(sig)
	full := make([]byte, 65)
	copy(full[0:32], r[:])
	copy(full[32:64], s[:])
	full[64] = recID
	pub, err := ethcrypto.Ecrecover(digest[:], full)
	if err != nil {
		t.Fatalf("Ecrecover: %v", err)
	}
	if want := sha256.Sum256(pub[1:65]); want != w.B256() {
		t.Fatalf("recovered key does not match wallet")
	}
}

func TestParseB256(t *testing.T) {
	raw := bytes.Repeat([]byte{0xab}, 32)
	hexStr := hex.EncodeToString(raw)

	for _, in := range []string{hexStr, "0x" + hexStr} {
		got, err := ParseB256(in)
		if err != nil {
			t.Fatalf("ParseB256(%q): %v", in, err)
		}
		if !bytes.Equal(got[:], raw) {
			t.Fatalf("ParseB256(%q) = %x", in, got)
		}
	}

	for _, in := range []string{"", "0x1234", "0x" + hexStr + "ff", "nothex"} {
		if _, err := ParseB256(in); err == nil {
			t.Errorf("ParseB256(%q): expected error", in)
		}
	}

	var b [32]byte
	copy(b[:], raw)
	if got := HexB256(b); got != "0x"+hexStr {
		t.Fatalf("HexB256 = %q", got)
	}
}
