package admission_test

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/courtside/admission"
)

func ExampleRateLimiter_Check() {
	limiter, err := admission.New(admission.Config{Max: 2, Window: time.Minute})
	if err != nil {
		log.Fatal(err)
	}
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest("GET", "/api/players", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		fmt.Println(limiter.Check(r))
	}
	// Output:
	// true
	// true
	// false
}

func ExampleGuard_Verify() {
	guard := &admission.Guard{}

	r := httptest.NewRequest("POST", "/api/predictions", nil)
	r.Header.Set(admission.DefaultCSRFHeader, "abc123")
	r.AddCookie(&http.Cookie{Name: admission.DefaultCSRFCookie, Value: "abc123"})
	fmt.Println(guard.Verify(r))

	r = httptest.NewRequest("POST", "/api/predictions", nil)
	r.Header.Set(admission.DefaultCSRFHeader, "abc123")
	r.AddCookie(&http.Cookie{Name: admission.DefaultCSRFCookie, Value: "abc124"})
	fmt.Println(guard.Verify(r))
	// Output:
	// true
	// false
}
