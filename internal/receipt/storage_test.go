package receipt

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		tmpDir string
		store  *Store
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		store, err = NewStore(tmpDir, "/uploads")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("should write the file and return its path", func() {
			path, err := store.Save("receipt_1_abc.jpg", []byte("image bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "receipt_1_abc.jpg")))
			Expect(path).To(BeAnExistingFile())
		})

		When("the directory is not writable", func() {
			BeforeEach(func() {
				Expect(os.Chmod(tmpDir, 0500)).To(Succeed())
			})

			AfterEach(func() {
				Expect(os.Chmod(tmpDir, 0755)).To(Succeed())
			})

			It("returns a StorageWriteError", func() {
				_, err := store.Save("receipt_1_abc.jpg", []byte("image bytes"))
				Expect(err).To(HaveOccurred())
				Expect(err).To(BeAssignableToTypeOf(&StorageWriteError{}))
			})
		})
	})

	Describe("PublicURL", func() {
		It("should map a filename to the public prefix", func() {
			Expect(store.PublicURL("receipt_1_abc.jpg")).To(Equal("/uploads/receipt_1_abc.jpg"))
		})

		It("should reduce paths to their base name", func() {
			Expect(store.PublicURL("/tmp/uploads/receipt_1_abc.jpg")).To(Equal("/uploads/receipt_1_abc.jpg"))
		})
	})

	Describe("SweepExpired", func() {
		var retention time.Duration

		writeAged := func(name string, age time.Duration) {
			path := filepath.Join(tmpDir, name)
			Expect(os.WriteFile(path, []byte("x"), 0644)).To(Succeed())
			mtime := time.Now().Add(-age)
			Expect(os.Chtimes(path, mtime, mtime)).To(Succeed())
		}

		BeforeEach(func() {
			retention = 30 * time.Minute
		})

		When("files straddle the retention window", func() {
			BeforeEach(func() {
				writeAged("old1.jpg", time.Hour)
				writeAged("old2.jpg", 45*time.Minute)
				writeAged("fresh1.jpg", 5*time.Minute)
				writeAged("fresh2.jpg", 0)
			})

			It("deletes exactly the expired files", func() {
				store.SweepExpired(retention)

				Expect(filepath.Join(tmpDir, "old1.jpg")).NotTo(BeAnExistingFile())
				Expect(filepath.Join(tmpDir, "old2.jpg")).NotTo(BeAnExistingFile())
				Expect(filepath.Join(tmpDir, "fresh1.jpg")).To(BeAnExistingFile())
				Expect(filepath.Join(tmpDir, "fresh2.jpg")).To(BeAnExistingFile())
			})
		})

		When("subdirectories exist in the store root", func() {
			BeforeEach(func() {
				Expect(os.Mkdir(filepath.Join(tmpDir, "nested"), 0755)).To(Succeed())
				writeAged(filepath.Join("nested", "old.jpg"), time.Hour)
			})

			It("leaves them alone", func() {
				store.SweepExpired(retention)
				Expect(filepath.Join(tmpDir, "nested", "old.jpg")).To(BeAnExistingFile())
			})
		})

		When("the store directory does not exist", func() {
			BeforeEach(func() {
				Expect(os.RemoveAll(tmpDir)).To(Succeed())
			})

			It("is a no-op", func() {
				Expect(func() { store.SweepExpired(retention) }).NotTo(Panic())
			})
		})
	})

	Describe("Sweep", func() {
		It("runs the sweep in the background", func() {
			path := filepath.Join(tmpDir, "old.jpg")
			Expect(os.WriteFile(path, []byte("x"), 0644)).To(Succeed())
			mtime := time.Now().Add(-2 * time.Hour)
			Expect(os.Chtimes(path, mtime, mtime)).To(Succeed())

			store.Sweep(30 * time.Minute)

			Eventually(func() bool {
				_, err := os.Stat(path)
				return os.IsNotExist(err)
			}).Should(BeTrue())
		})
	})
})
