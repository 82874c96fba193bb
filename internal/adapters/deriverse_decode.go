package adapters

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"strings"

	"deriverse-journal/internal/types"
)

// Deriverse report messages are emitted as base64 payloads behind this log
// prefix. Layouts are little-endian, tag byte first.
const programDataPrefix = "Program data: "

// decodeLogMessages extracts every recognizable Deriverse event from a
// transaction's log lines. Undecodable payloads and unknown tags are
// skipped; the decode result is a tagged variant, never a loose map.
func decodeLogMessages(logMessages []string) []any {
	var events []any
	for _, line := range logMessages {
		rest, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
		if err != nil || len(payload) == 0 {
			continue
		}
		if ev, ok := decodeEvent(payload); ok {
			events = append(events, ev)
		}
	}
	return events
}

// decodeEvent parses one report payload by tag. Field layouts per family:
//
//	place order (10/18): orderId u64, instrId u32, orderType u8, ioc u8
//	fill        (11/19): orderId u64, side u8, price f64, qty f64
//	fees        (15/23): fees f64
func decodeEvent(payload []byte) (any, bool) {
	tag := payload[0]
	body := payload[1:]

	switch tag {
	case tagSpotPlaceOrder, tagPerpPlaceOrder:
		if len(body) < 14 {
			return nil, false
		}
		orderID := binary.LittleEndian.Uint64(body[0:8])
		instrID := binary.LittleEndian.Uint32(body[8:12])
		return placeOrderEvent{
			OrderID:   orderID,
			InstrID:   instrID,
			OrderType: decodeOrderType(body[12], body[13]),
		}, true

	case tagSpotFill, tagPerpFill:
		if len(body) < 25 {
			return nil, false
		}
		side := types.SideShort
		if body[8] == 0 {
			side = types.SideLong
		}
		return fillEvent{
			OrderID: binary.LittleEndian.Uint64(body[0:8]),
			Side:    side,
			Price:   math.Float64frombits(binary.LittleEndian.Uint64(body[9:17])),
			Qty:     math.Float64frombits(binary.LittleEndian.Uint64(body[17:25])),
			Perp:    tag == tagPerpFill,
		}, true

	case tagSpotFees, tagPerpFees:
		if len(body) < 8 {
			return nil, false
		}
		return feesEvent{
			Fees: math.Float64frombits(binary.LittleEndian.Uint64(body[0:8])),
		}, true
	}

	return nil, false
}

// decodeOrderType maps the raw order-type byte; the ioc flag wins over the
// base type.
func decodeOrderType(raw, ioc byte) types.OrderType {
	if ioc == 1 {
		return types.OrderIOC
	}
	switch raw {
	case 0:
		return types.OrderLimit
	case 1:
		return types.OrderMarket
	default:
		return types.OrderUnknown
	}
}
