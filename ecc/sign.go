package ecc

// Sign runs the two-phase signing sequence: load the message digest into
// the device's working buffer (nonce, leaving the device awake), then
// request the signature referencing a key slot (sign, sleeping after).
//
// The phases are never retried in isolation. A failure anywhere sends a
// sleep pulse to reset device state and restarts both phases, up to the
// configured sign attempt bound; the last attempt's failure is returned
// as-is.
func (d *Device) Sign(nonce, sign Request) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for attempt := 0; attempt < d.cfg.signAttempts; attempt++ {
		final := attempt == d.cfg.signAttempts-1

		if _, err := d.run(nonce, false, 1); err != nil {
			if final {
				return nil, err
			}
			d.logger.Debug("ecc: digest load failed, restarting sign sequence",
				"attempt", attempt+1, "error", err)
			d.sendSleep()

			continue
		}

		sig, err := d.run(sign, true, 1)
		if err != nil {
			if final {
				return nil, err
			}
			d.logger.Debug("ecc: signature request failed, restarting sign sequence",
				"attempt", attempt+1, "error", err)
			d.sendSleep()

			continue
		}

		return sig, nil
	}

	return nil, ErrTimeout
}
