/*
Package browser drives a real Chromium through go-rod.

A Provider launches one browser process per Session. Each session owns a
single page, which is opened through go-rod/stealth when requested. Proxy
credentials cannot travel in --proxy-server, so they are answered from the
CDP Fetch domain for every auth challenge.

	p := browser.New(logger, 500*time.Millisecond)
	s, err := p.Launch(ctx, browser.LaunchOptions{
		Headless: true,
		Flags:    browser.DefaultFlags,
		Proxy:    &browser.Proxy{Server: "http://1.2.3.4:8080", Username: "u", Password: "p"},
	})
	defer s.Close()

	_ = s.SetCookies(ctx, cookies)
	_ = s.Navigate(ctx, "https://www.bytick.com", 30*time.Second)
	raw, err := s.Evaluate(ctx, "async (a) => a * 2", 21)

Navigate counts a page as loaded once no request has been in flight for
the provider's idle window. Evaluate awaits promises and returns JSON.
Close kills the process and removes its profile directory; Shutdown does
that for every session still alive.
*/
package browser
