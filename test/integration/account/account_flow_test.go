// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

//go:build integration

package account_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

type response struct {
	status int
	body   map[string]any
}

func postJSON(path, body string) response {
	resp, err := http.Post(env.server.URL+path, "application/json", strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	return decode(resp)
}

func login(email, password string) response {
	resp, err := http.PostForm(env.server.URL+"/auth/login", url.Values{
		"username": {email},
		"password": {password},
	})
	Expect(err).NotTo(HaveOccurred())
	return decode(resp)
}

func me(token string) response {
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/auth/me", nil)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	return decode(resp)
}

func decode(resp *http.Response) response {
	defer resp.Body.Close()
	var body map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
	return response{status: resp.StatusCode, body: body}
}

func resetTokenFromOutbox() string {
	link, err := url.Parse(env.outbox.last().Link)
	Expect(err).NotTo(HaveOccurred())
	token := link.Query().Get("token")
	Expect(token).NotTo(BeEmpty())
	return token
}

var _ = Describe("Account lifecycle", Ordered, func() {
	const email = "collector@example.com"
	var session string

	It("registers a new account", func() {
		r := postJSON("/auth/register", `{"email":"`+email+`","password":"black-lotus"}`)
		Expect(r.status).To(Equal(http.StatusOK))
		Expect(r.body["message"]).To(Equal("User created successfully"))
	})

	It("rejects a second registration for the same email", func() {
		r := postJSON("/auth/register", `{"email":"`+email+`","password":"other"}`)
		Expect(r.status).To(Equal(http.StatusBadRequest))
		Expect(r.body["detail"]).To(Equal("Email already registered"))
	})

	It("rejects a wrong password", func() {
		r := login(email, "mox-pearl")
		Expect(r.status).To(Equal(http.StatusBadRequest))
		Expect(r.body["detail"]).To(Equal("Invalid credentials"))
	})

	It("logs in and resolves the session", func() {
		r := login(email, "black-lotus")
		Expect(r.status).To(Equal(http.StatusOK))
		Expect(r.body["token_type"]).To(Equal("bearer"))
		session, _ = r.body["access_token"].(string)
		Expect(session).NotTo(BeEmpty())

		r = me(session)
		Expect(r.status).To(Equal(http.StatusOK))
		Expect(r.body).To(Equal(map[string]any{"email": email}))
	})

	It("reports unknown emails on forgot-password", func() {
		r := postJSON("/auth/forgot-password", `{"email":"nobody@example.com"}`)
		Expect(r.status).To(Equal(http.StatusNotFound))
	})

	It("resets the password with the mailed token", func() {
		r := postJSON("/auth/forgot-password", `{"email":"`+email+`"}`)
		Expect(r.status).To(Equal(http.StatusOK))

		token := resetTokenFromOutbox()
		r = postJSON("/auth/reset-password", `{"token":"`+token+`","new_password":"time-walk"}`)
		Expect(r.status).To(Equal(http.StatusOK))

		Expect(login(email, "black-lotus").status).To(Equal(http.StatusBadRequest))
		Expect(login(email, "time-walk").status).To(Equal(http.StatusOK))
	})

	It("keeps earlier sessions valid after a reset", func() {
		Expect(me(session).status).To(Equal(http.StatusOK))
	})

	It("rejects a session token on reset-password", func() {
		r := postJSON("/auth/reset-password", `{"token":"`+session+`","new_password":"x"}`)
		Expect(r.status).To(Equal(http.StatusBadRequest))
		Expect(r.body["detail"]).To(Equal("Invalid or expired token"))
	})
})

var _ = Describe("Concurrent registration", func() {
	It("creates exactly one account", func() {
		const attempts = 8
		statuses := make(chan int, attempts)
		var wg sync.WaitGroup
		for range attempts {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				statuses <- postJSON("/auth/register", `{"email":"race@example.com","password":"pw"}`).status
			}()
		}
		wg.Wait()
		close(statuses)

		counts := map[int]int{}
		for s := range statuses {
			counts[s]++
		}
		Expect(counts[http.StatusOK]).To(Equal(1))
		Expect(counts[http.StatusBadRequest]).To(Equal(attempts - 1))

		var n int
		Expect(env.pool.QueryRow(env.ctx,
			"SELECT count(*) FROM users WHERE email = $1", "race@example.com").Scan(&n)).To(Succeed())
		Expect(n).To(Equal(1))
	})
})
