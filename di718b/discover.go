package di718b

// Autodiscover locates a DATAQ unit on the local network.
//
// Unimplemented. The returned error carries operator guidance: let DHCP
// resolve the unit's hostname, use the vendor's "DATAQ Instruments
// Hardware Manager" utility shipped with WinDAQ, check DHCP logs for MAC
// addresses starting with 00:80:A3, or implement
// http://wiki.lantronix.com/developer/Lantronix_Discovery_Protocol
func Autodiscover() (string, error) {
	return "", errf(ExUnavailable,
		"autodiscovery unimplemented: let DHCP resolve the unit's hostname, "+
			"use the 'DATAQ Instruments Hardware Manager' utility provided with WinDAQ, "+
			"check your DHCP logs for MAC addresses starting with 00:80:A3, "+
			"or implement the Lantronix Discovery Protocol")
}
