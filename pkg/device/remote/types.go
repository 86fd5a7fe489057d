package remote

type TransmitRequest struct {
	Address string
	Port    uint16
	Width   uint16
	Height  uint16
	Image   []byte
}

type TransmitReply struct {
	Success   bool
	Attempted bool
}
