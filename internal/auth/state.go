// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

// IsLoggedIn reports whether the persisted state marks the user as logged in.
func (s *Service) IsLoggedIn() (bool, error) {
	st, err := LoadState(s.km)
	if err != nil {
		return false, err
	}
	return st.LoggedIn, nil
}
