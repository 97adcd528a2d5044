package bridge

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"virtual-swap/pkg/gas"
)

// Settlement functions of the virtual swap bridge contract
const bridgeABI = `[
{"inputs":[{"name":"itemId","type":"uint256"},{"name":"amount","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"itemId","type":"uint256"},{"name":"settleAmount","type":"uint256"},{"name":"minAmount","type":"uint256"},{"name":"deadline","type":"uint256"}],"name":"completeToToken","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"itemId","type":"uint256"}],"name":"completeToSynth","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"itemId","type":"uint256"},{"name":"swapAmount","type":"uint256"}],"name":"calcCompleteToToken","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// defaultGasLimit is used when estimation fails
const defaultGasLimit = uint64(500000)

// Backend is the subset of ethclient.Client the bridge needs
type Backend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EVMConfig holds connection and signing settings for the bridge contract
type EVMConfig struct {
	RPCURL     string
	PrivateKey string
	ChainID    int64
	Address    string
	GasLimit   *uint64
	Gas        gas.Selection
}

// EVMBridge calls the settlement contract on an EVM chain
type EVMBridge struct {
	backend    Backend
	closer     func()
	address    common.Address
	contract   abi.ABI
	privateKey *ecdsa.PrivateKey
	from       common.Address
	chainID    *big.Int
	gasLimit   *uint64
	gas        gas.Selection
	logger     *zap.Logger
}

// NewEVMBridge dials the RPC endpoint and prepares the signer
func NewEVMBridge(cfg EVMConfig, logger *zap.Logger) (*EVMBridge, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured")
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	b, err := NewEVMBridgeWithBackend(client, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	b.closer = client.Close
	return b, nil
}

// NewEVMBridgeWithBackend builds a bridge over an existing backend
func NewEVMBridgeWithBackend(backend Backend, cfg EVMConfig, logger *zap.Logger) (*EVMBridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !common.IsHexAddress(cfg.Address) {
		return nil, fmt.Errorf("invalid bridge address: %s", cfg.Address)
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("chain id is required")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	contract, err := abi.JSON(strings.NewReader(bridgeABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bridge ABI: %w", err)
	}

	return &EVMBridge{
		backend:    backend,
		address:    common.HexToAddress(cfg.Address),
		contract:   contract,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    big.NewInt(cfg.ChainID),
		gasLimit:   cfg.GasLimit,
		gas:        cfg.Gas,
		logger:     logger.With(zap.String("component", "bridge")),
	}, nil
}

// From returns the signing account
func (b *EVMBridge) From() common.Address {
	return b.from
}

func (b *EVMBridge) Withdraw(ctx context.Context, itemID, amount *big.Int) (Tx, error) {
	return b.transact(ctx, "withdraw", itemID, amount)
}

func (b *EVMBridge) CompleteToToken(ctx context.Context, itemID, amount, minOutput *big.Int, deadline int64) (Tx, error) {
	return b.transact(ctx, "completeToToken", itemID, amount, minOutput, big.NewInt(deadline))
}

func (b *EVMBridge) CompleteToSynth(ctx context.Context, itemID *big.Int) (Tx, error) {
	return b.transact(ctx, "completeToSynth", itemID)
}

func (b *EVMBridge) CalcCompleteToToken(ctx context.Context, itemID, amount *big.Int) (*big.Int, error) {
	data, err := b.contract.Pack("calcCompleteToToken", itemID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack calcCompleteToToken: %w", err)
	}

	result, err := b.backend.CallContract(ctx, ethereum.CallMsg{
		From: b.from,
		To:   &b.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call calcCompleteToToken: %w", err)
	}

	out, err := b.contract.Unpack("calcCompleteToToken", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack calcCompleteToToken: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected calcCompleteToToken result length %d", len(out))
	}
	amountOut, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected calcCompleteToToken result type %T", out[0])
	}

	return amountOut, nil
}

// transact packs, signs and sends one contract call
func (b *EVMBridge) transact(ctx context.Context, method string, args ...interface{}) (Tx, error) {
	data, err := b.contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	nonce, err := b.backend.PendingNonceAt(ctx, b.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := b.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := defaultGasLimit
	if b.gasLimit != nil {
		gasLimit = *b.gasLimit
	} else {
		estimated, err := b.backend.EstimateGas(ctx, ethereum.CallMsg{
			From: b.from,
			To:   &b.address,
			Data: data,
		})
		if err != nil {
			// a failing estimate usually means the call reverts
			return nil, fmt.Errorf("failed to estimate gas for %s: %w", method, err)
		}
		gasLimit = estimated * 120 / 100
	}

	tx := types.NewTransaction(nonce, b.address, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(b.chainID), b.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := b.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	b.logger.Info("settlement transaction sent",
		zap.String("method", method),
		zap.String("tx_hash", signedTx.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.String("gas_price", gasPrice.String()),
	)

	return &evmTx{tx: signedTx, backend: b.backend, logger: b.logger}, nil
}

// gasPrice resolves the selected preset against the node's suggestion
func (b *EVMBridge) gasPrice(ctx context.Context) (*big.Int, error) {
	if b.gas.Preset == gas.Custom {
		if p := b.gas.Price(gas.Snapshot{}); p != nil {
			return p, nil
		}
	}

	suggested, err := b.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	if p := b.gas.Price(gas.SnapshotFromSuggested(suggested)); p != nil {
		return p, nil
	}
	return suggested, nil
}

// Close closes the client connection
func (b *EVMBridge) Close() {
	if b.closer != nil {
		b.closer()
	}
}

type evmTx struct {
	tx      *types.Transaction
	backend bind.DeployBackend
	logger  *zap.Logger
}

func (t *evmTx) Hash() string {
	return t.tx.Hash().Hex()
}

func (t *evmTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, t.backend, t.tx)
	if err != nil {
		return fmt.Errorf("failed to wait for transaction %s: %w", t.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted in block %s", t.Hash(), receipt.BlockNumber)
	}

	t.logger.Info("settlement transaction mined",
		zap.String("tx_hash", t.Hash()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return nil
}
