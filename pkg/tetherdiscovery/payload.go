package tetherdiscovery

import "encoding/json"

type payload struct {
	Status  bool          `json:"status"`
	Data    []payloadData `json:"data,omitempty"`
	Message Tag           `json:"message"`
}

type payloadData struct {
	IPAddress string      `json:"ipAddress"`
	Device    *DeviceInfo `json:"device,omitempty"`
}

// JSON renders the result as the payload printed by the command line tool:
//
//	{"status":false,"message":"NO_RESULTS"}
//	{"status":true,"data":[{"ipAddress":"172.20.10.5"}],"message":"NETWORK_DISCOVERY_SUCCESS"}
//
// It returns nil if the result cannot be encoded.
func (r Result) JSON() []byte {
	p := payload{Status: r.Status, Message: r.Tag}
	if r.Tag == TagNetworkDiscoverySuccess {
		p.Data = []payloadData{{IPAddress: r.IPAddress, Device: r.Device}}
	}
	data, err := json.Marshal(p)
	if err != nil {
		debugLog(ComponentDiscovery, "encode result %s: %v", r.Tag, err)
		return nil
	}
	return data
}

